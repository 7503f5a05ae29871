package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/SebastianChristoph/brickonizer/analyze"
	"github.com/SebastianChristoph/brickonizer/bricklink"
	"github.com/SebastianChristoph/brickonizer/datastructures"
	"github.com/SebastianChristoph/brickonizer/export"
	"github.com/SebastianChristoph/brickonizer/imageproc"
	"github.com/SebastianChristoph/brickonizer/review"
	"github.com/SebastianChristoph/brickonizer/sessions"
)

const sessionCookie = "session_id"

type App struct {
	store     *sessions.Store
	storage   *imageproc.Storage
	pipeline  *analyze.Pipeline
	detector  imageproc.QuantityDetector
	cookieAge time.Duration
}

func (a *App) registerRoutes(router *gin.Engine) {
	router.Use(corsHeaders())
	router.Use(ravenRecovery())

	v1 := router.Group("/v1")
	{
		v1.GET("/session/check", a.checkSession)
		v1.POST("/session/reset", a.resetSession)

		v1.POST("/images", a.uploadImages)
		v1.GET("/images/:filename", a.serveImage)
		v1.PUT("/images/:filename", a.overwriteImage)
		v1.GET("/images/:filename/boxes", a.getBoxes)
		v1.POST("/images/:filename/boxes", a.saveBoxes)

		v1.POST("/analyze", a.startAnalysis)
		v1.GET("/analyze/progress", a.analysisProgress)
		v1.POST("/analyze/cancel", a.cancelAnalysis)

		v1.GET("/results", a.getResults)
		v1.POST("/results/:index", a.updatePart)
		v1.POST("/results/:index/alternative", a.selectAlternative)
		v1.DELETE("/results/:index", a.removePart)

		v1.POST("/review/next", a.reviewNext)
		v1.POST("/review/previous", a.reviewPrevious)
		v1.GET("/review/position", a.reviewPosition)

		v1.GET("/export/json", a.exportJSON)
		v1.GET("/export/bricklink", a.exportBrickLink)
		v1.GET("/export/bricklink.xml", a.exportBrickLinkXML)

		v1.GET("/colors", a.getColors)
		v1.GET("/helpers/parts", a.quickPickParts)
	}
}

func corsHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With, X-PINGOTHER, X-File-Name, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == http.MethodOptions {
			c.JSON(http.StatusOK, struct{}{})
			c.Abort()
			return
		}
		c.Next()
	}
}

func ravenRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Debug("[API] Panic in ", c.Request.URL.Path, ": ", r)
				raven.CaptureMessage(fmt.Sprintf("panic: %v", r), map[string]string{"path": c.Request.URL.Path})
				c.AbortWithStatusJSON(500, gin.H{"error": "Internal error - please try again later"})
			}
		}()
		c.Next()
	}
}

// session returns the caller's session, creating a fresh one (and setting
// the cookie) on first contact or after expiry.
func (a *App) session(c *gin.Context) *sessions.Session {
	if id, err := c.Cookie(sessionCookie); err == nil {
		if session, ok := a.store.Get(id); ok {
			return session
		}
	}
	session := a.store.Create()
	c.SetCookie(sessionCookie, session.ID, int(a.cookieAge.Seconds()), "/", "", false, true)
	return session
}

func (a *App) currentSession(c *gin.Context) (*sessions.Session, bool) {
	id, err := c.Cookie(sessionCookie)
	if err != nil {
		return nil, false
	}
	return a.store.Get(id)
}

func (a *App) checkSession(c *gin.Context) {
	session, ok := a.currentSession(c)
	if !ok {
		c.JSON(200, gin.H{"should_reset": true})
		return
	}
	c.JSON(200, gin.H{"should_reset": false, "age": session.Age().Seconds()})
}

func (a *App) resetSession(c *gin.Context) {
	if id, err := c.Cookie(sessionCookie); err == nil {
		a.store.Delete(id)
	}
	session := a.store.Create()
	c.SetCookie(sessionCookie, session.ID, int(a.cookieAge.Seconds()), "/", "", false, true)
	c.JSON(200, gin.H{"success": true, "session_id": session.ID})
}

func (a *App) uploadImages(c *gin.Context) {
	session := a.session(c)

	form, err := c.MultipartForm()
	if err != nil || len(form.File["images"]) == 0 {
		c.JSON(400, gin.H{"error": "Picture is missing"})
		return
	}

	var uploaded []datastructures.UploadedImage
	var failed []string
	for _, header := range form.File["images"] {
		filename := filepath.Base(header.Filename)
		file, err := header.Open()
		if err != nil {
			failed = append(failed, filename)
			continue
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			failed = append(failed, filename)
			continue
		}

		stored, err := imageproc.Ingest(data)
		if err != nil {
			log.Debug("[Upload] Couldn't decode ", filename, ": ", err.Error())
			failed = append(failed, filename)
			continue
		}
		if err := a.storage.Store(session.ID+"_"+filename, stored); err != nil {
			log.Debug("[Upload] Couldn't store ", filename, ": ", err.Error())
			failed = append(failed, filename)
			continue
		}

		record := session.AddImage(filename)
		uploaded = append(uploaded, datastructures.UploadedImage{
			Filename: filename,
			URL:      imageURL(filename, record.Revision),
			Revision: record.Revision,
		})
	}

	c.JSON(200, gin.H{"uploaded": uploaded, "failed": failed})
}

func (a *App) serveImage(c *gin.Context) {
	session := a.session(c)
	filename := filepath.Base(c.Param("filename"))

	if _, ok := session.Image(filename); !ok {
		c.JSON(404, gin.H{"error": "Image not found"})
		return
	}
	data, err := a.storage.Load(session.ID + "_" + filename)
	if err != nil {
		c.JSON(404, gin.H{"error": "Image not found"})
		return
	}
	c.Data(200, "image/jpeg", data)
}

// overwriteImage replaces the stored pixels under the same filename
// (crop-and-recrop workflow). The image keeps its key and boxes; the bumped
// revision busts client caches.
func (a *App) overwriteImage(c *gin.Context) {
	session := a.session(c)
	filename := filepath.Base(c.Param("filename"))

	_, header, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(400, gin.H{"error": "Picture is missing"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(400, gin.H{"error": "Picture is missing"})
		return
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		c.JSON(400, gin.H{"error": "Picture is missing"})
		return
	}

	record, ok := session.Image(filename)
	if !ok {
		c.JSON(404, gin.H{"error": "Image not found"})
		return
	}
	stored, err := imageproc.Ingest(data)
	if err != nil {
		c.JSON(400, gin.H{"error": "Couldn't decode image"})
		return
	}
	if err := a.storage.Overwrite(session.ID+"_"+filename, stored); err != nil {
		c.JSON(500, gin.H{"error": "Couldn't store image - please try again later"})
		return
	}
	record, _ = session.BumpRevision(filename)
	c.JSON(200, gin.H{"success": true, "url": imageURL(filename, record.Revision), "revision": record.Revision})
}

func (a *App) getBoxes(c *gin.Context) {
	session := a.session(c)
	filename := filepath.Base(c.Param("filename"))
	c.JSON(200, gin.H{"boxes": session.Boxes(filename)})
}

func (a *App) saveBoxes(c *gin.Context) {
	session := a.session(c)
	filename := filepath.Base(c.Param("filename"))

	var req datastructures.SaveBoxesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}

	normalized := make([]datastructures.BoundingBox, 0, len(req.Boxes))
	for i, box := range req.Boxes {
		box, err := imageproc.NormalizeBox(box)
		if err != nil {
			c.JSON(400, gin.H{"error": fmt.Sprintf("Box %d has no area", i)})
			return
		}
		normalized = append(normalized, box)
	}

	count, err := session.SetBoxes(filename, normalized)
	if err != nil {
		c.JSON(404, gin.H{"error": "Image not found"})
		return
	}
	c.JSON(200, gin.H{"success": true, "count": count})
}

func (a *App) startAnalysis(c *gin.Context) {
	session := a.session(c)

	snapshot := session.ImagesWithBoxes()
	total := 0
	for _, imageBoxes := range snapshot {
		total += len(imageBoxes.Boxes)
	}
	if total == 0 {
		c.JSON(400, gin.H{"error": "No boxes to analyze"})
		return
	}

	if err := session.Progress.TryStart(total); err != nil {
		if errors.Is(err, analyze.ErrAnalysisRunning) {
			c.JSON(409, gin.H{"error": "Analysis already running"})
			return
		}
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	items := a.buildItems(session, snapshot)
	session.Review.Reset()

	go func() {
		summary := a.pipeline.Run(context.Background(), items, session.Progress, session.Review.Append)
		log.Debug("[Analyze] Session ", session.ID, ": ", summary.Recognized, "/", summary.Total, " recognized")
	}()

	c.JSON(202, gin.H{"started": true, "total": total})
}

// buildItems crops every box of every image in upload/draw order. Crop
// failures become per-item errors so a single bad box never blocks the run.
func (a *App) buildItems(session *sessions.Session, snapshot []sessions.ImageBoxes) []analyze.Item {
	var items []analyze.Item
	for _, imageBoxes := range snapshot {
		if len(imageBoxes.Boxes) == 0 {
			continue
		}
		data, loadErr := a.storage.Load(session.ID + "_" + imageBoxes.Filename)
		for _, box := range imageBoxes.Boxes {
			item := analyze.Item{ImageName: imageBoxes.Filename, Box: box}
			switch {
			case loadErr != nil:
				item.CropErr = loadErr
			default:
				crop, err := imageproc.Crop(data, box)
				if err != nil {
					item.CropErr = err
					break
				}
				item.Crop = crop
				if box.Quantity != nil {
					item.QuantityGuess = box.Quantity
				} else if quantity, ok := a.detector.DetectQuantity(data, box); ok {
					guess := quantity
					item.QuantityGuess = &guess
				}
			}
			items = append(items, item)
		}
	}
	return items
}

func (a *App) analysisProgress(c *gin.Context) {
	session := a.session(c)
	c.JSON(200, session.Progress.Snapshot())
}

func (a *App) cancelAnalysis(c *gin.Context) {
	session := a.session(c)
	c.JSON(200, gin.H{"cancelled": session.Progress.Cancel()})
}

func (a *App) getResults(c *gin.Context) {
	session := a.session(c)
	c.JSON(200, gin.H{"results": session.Review.Entries()})
}

func (a *App) updatePart(c *gin.Context) {
	session := a.session(c)
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	var req datastructures.UpdatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	var err error
	switch {
	case req.Skip:
		err = session.Review.Skip(index)
	case req.Unknown:
		err = session.Review.Unknown(index)
	case req.NoMatch:
		err = session.Review.NoMatch(index)
	default:
		err = session.Review.Save(index, req.PartNum, req.ColorID, req.Quantity)
	}
	if err != nil {
		respondReviewError(c, index, err)
		return
	}
	c.JSON(200, gin.H{"success": true})
}

func (a *App) selectAlternative(c *gin.Context) {
	session := a.session(c)
	index, ok := parseIndex(c)
	if !ok {
		return
	}

	var req datastructures.AlternativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid request body"})
		return
	}
	if err := session.Review.SelectAlternative(index, req.Choice); err != nil {
		respondReviewError(c, index, err)
		return
	}
	part, _ := session.Review.Part(index)
	c.JSON(200, gin.H{"success": true, "part": part})
}

func (a *App) removePart(c *gin.Context) {
	session := a.session(c)
	index, ok := parseIndex(c)
	if !ok {
		return
	}
	if err := session.Review.Remove(index); err != nil {
		respondReviewError(c, index, err)
		return
	}
	c.JSON(200, gin.H{"success": true, "remaining": session.Review.Len()})
}

func (a *App) reviewNext(c *gin.Context) {
	session := a.session(c)
	index, done := session.Review.Next()
	c.JSON(200, gin.H{"index": index, "done": done})
}

func (a *App) reviewPrevious(c *gin.Context) {
	session := a.session(c)
	c.JSON(200, gin.H{"index": session.Review.Previous()})
}

func (a *App) reviewPosition(c *gin.Context) {
	session := a.session(c)
	c.JSON(200, gin.H{
		"index":    session.Review.Cursor(),
		"total":    session.Review.Len(),
		"reviewed": session.Review.ReviewedCount(),
	})
}

func (a *App) exportJSON(c *gin.Context) {
	session := a.session(c)
	c.JSON(200, export.JSON(session.Review.Parts()))
}

func (a *App) exportBrickLink(c *gin.Context) {
	session := a.session(c)
	xmlText, warnings := export.BrickLinkXML(session.Review.Parts())
	c.JSON(200, datastructures.BrickLinkExport{
		XML:       xmlText,
		ItemCount: countItems(xmlText),
		Warnings:  warnings,
	})
}

func (a *App) exportBrickLinkXML(c *gin.Context) {
	session := a.session(c)
	xmlText, _ := export.BrickLinkXML(session.Review.Parts())
	c.Data(200, "text/xml; charset=utf-8", []byte(xmlText))
}

func (a *App) getColors(c *gin.Context) {
	session := a.session(c)
	colors := make([]datastructures.ColorInfo, 0, len(bricklink.Colors))
	for _, color := range bricklink.Colors {
		colors = append(colors, datastructures.ColorInfo{ID: color.ID, Name: color.Name, Hex: color.Hex})
	}
	c.JSON(200, gin.H{"colors": colors, "recent": session.Review.RecentColors()})
}

func (a *App) quickPickParts(c *gin.Context) {
	session := a.session(c)
	c.JSON(200, gin.H{"parts": session.Review.QuickPick()})
}

func parseIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid part index"})
		return 0, false
	}
	return index, true
}

func respondReviewError(c *gin.Context, index int, err error) {
	if errors.Is(err, review.ErrNotFound) {
		c.JSON(404, gin.H{"error": fmt.Sprintf("Part %d not found", index)})
		return
	}
	c.JSON(400, gin.H{"error": err.Error()})
}

func imageURL(filename string, revision int) string {
	return fmt.Sprintf("/v1/images/%s?v=%d", filename, revision)
}

func countItems(xmlText string) int {
	return strings.Count(xmlText, "<ITEM>")
}
