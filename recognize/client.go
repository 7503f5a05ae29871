package recognize

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"

	"github.com/SebastianChristoph/brickonizer/datastructures"
)

const DefaultBaseURL = "https://api.brickognize.com"

// Result is one recognizer response: the ranked part candidates plus the
// color predictions for the crop. An empty Items list means the part was not
// recognized.
type Result struct {
	Items  []datastructures.Candidate
	Colors []datastructures.ColorCandidate
}

// Client talks to the Brickognize prediction API.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

type apiItem struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	ImgURL string  `json:"img_url"`
}

type apiColor struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type apiResponse struct {
	Items  []apiItem  `json:"items"`
	Colors []apiColor `json:"colors"`
}

// Recognize sends one cropped part image to the API and returns the ranked
// candidate list. Timeouts and transport failures are returned as errors,
// an empty candidate list is not an error.
func (c *Client) Recognize(ctx context.Context, crop []byte) (Result, error) {
	var body apiResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("query_image", "part.jpg", bytes.NewReader(crop)).
		SetQueryParams(map[string]string{
			"external_catalogs": "bricklink",
			"predict_color":     "true",
		}).
		SetResult(&body).
		Post("/predict/")
	if err != nil {
		return Result{}, err
	}
	if resp.StatusCode() != 200 {
		return Result{}, fmt.Errorf("brickognize: status %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}

	result := Result{}
	for _, item := range body.Items {
		result.Items = append(result.Items, datastructures.Candidate{
			ID:       item.ID,
			Name:     item.Name,
			Score:    item.Score,
			ImageURL: item.ImgURL,
		})
	}
	for _, color := range body.Colors {
		result.Colors = append(result.Colors, datastructures.ColorCandidate{
			Name:  color.Name,
			Score: color.Score,
		})
	}

	log.Debug("[Recognize] Got ", len(result.Items), " candidate(s) from API")
	return result, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
