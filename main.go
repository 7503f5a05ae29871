package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/SebastianChristoph/brickonizer/analyze"
	"github.com/SebastianChristoph/brickonizer/imageproc"
	"github.com/SebastianChristoph/brickonizer/recognize"
	"github.com/SebastianChristoph/brickonizer/sessions"
)

func main() {
	log.SetLevel(log.DebugLevel)

	releaseMode := flag.Bool("release", false, "Run in release mode")
	listenAddress := flag.String("listen-address", ":8081", "Address to listen on")
	uploadsDir := flag.String("uploads-dir", "./uploads/", "Location of the temporary saved images")
	brickognizeURL := flag.String("brickognize-url", recognize.DefaultBaseURL, "Base URL of the Brickognize API")
	rateLimitDelay := flag.Duration("rate-limit-delay", 500*time.Millisecond, "Minimum interval between recognition API calls")
	sessionMaxAge := flag.Duration("session-max-age", 2*time.Hour, "Inactivity threshold after which a session is discarded")

	flag.Parse()
	if *releaseMode {
		fmt.Printf("[Main] Starting gin in release mode!\n")
		gin.SetMode(gin.ReleaseMode)
		log.SetLevel(log.InfoLevel)
	}

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := raven.SetDSN(dsn); err != nil {
			log.Debug("[Main] Couldn't set sentry DSN: ", err.Error())
		}
	}

	storage, err := imageproc.NewStorage(*uploadsDir)
	if err != nil {
		log.Debug("[Main] Couldn't create uploads directory: ", err.Error())
		os.Exit(1)
	}

	store := sessions.NewStore(*sessionMaxAge, newSessionID, removeSessionFiles(storage))

	app := &App{
		store:     store,
		storage:   storage,
		pipeline:  analyze.New(recognize.NewClient(*brickognizeURL), *rateLimitDelay),
		detector:  imageproc.NoopQuantityDetector{},
		cookieAge: *sessionMaxAge,
	}

	router := gin.Default()
	app.registerRoutes(router)

	log.Debug("[Main] Listening on ", *listenAddress)
	router.Run(*listenAddress)
}

func newSessionID() string {
	return uuid.Must(uuid.NewV4()).String()
}

// removeSessionFiles deletes a discarded session's uploaded files from disk.
func removeSessionFiles(storage *imageproc.Storage) func(*sessions.Session) {
	return func(session *sessions.Session) {
		for _, record := range session.Images() {
			storage.Remove(session.ID + "_" + record.Filename)
		}
	}
}
