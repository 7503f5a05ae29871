package datastructures

type BoundingBox struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	Width    int  `json:"width"`
	Height   int  `json:"height"`
	Quantity *int `json:"quantity,omitempty"`
}

type Candidate struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	ImageURL string  `json:"image_url,omitempty"`
}

type ColorCandidate struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type PartResult struct {
	ImageName       string           `json:"image_name"`
	BBox            BoundingBox      `json:"bbox"`
	CropImage       string           `json:"crop_image,omitempty"` //base64 encoded JPEG crop
	Recognized      bool             `json:"recognized"`
	PartID          string           `json:"part_id,omitempty"`
	PartName        string           `json:"part_name,omitempty"`
	Confidence      float64          `json:"confidence"`
	CandidateColors []ColorCandidate `json:"candidate_colors,omitempty"`
	RawCandidates   []Candidate      `json:"raw_candidates,omitempty"`
	Error           string           `json:"error,omitempty"`
	NoMatch         bool             `json:"no_match"`
	Skip            bool             `json:"skip"`
	Unknown         bool             `json:"unknown"`
	QuantityGuess   *int             `json:"quantity_guess,omitempty"`
	FinalPartNumber string           `json:"finalized_part_number,omitempty"`
	FinalColorID    string           `json:"finalized_color_id,omitempty"`
	FinalColorName  string           `json:"finalized_color_name,omitempty"`
	FinalQuantity   int              `json:"finalized_quantity,omitempty"`
}

type ResultEntry struct {
	Index    int  `json:"index"`
	Reviewed bool `json:"reviewed"`
	PartResult
}

type AnalysisProgress struct {
	Current    int  `json:"current"`
	Total      int  `json:"total"`
	InProgress bool `json:"in_progress"`
	Cancelled  bool `json:"cancelled"`
	Percentage int  `json:"percentage"`
}

type AnalysisSummary struct {
	Total      int `json:"total"`
	Recognized int `json:"recognized"`
	Failed     int `json:"failed"`
}

type UpdatePartRequest struct {
	PartNum  string `json:"part_num"`
	ColorID  string `json:"color_id"`
	Quantity int    `json:"quantity"`
	Skip     bool   `json:"skip"`
	Unknown  bool   `json:"unknown"`
	NoMatch  bool   `json:"no_match"`
}

type AlternativeRequest struct {
	Choice int `json:"choice"`
}

type SaveBoxesRequest struct {
	Boxes []BoundingBox `json:"boxes"`
}

type UploadedImage struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
	Revision int    `json:"revision"`
}

type ColorInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

type QuickPickPart struct {
	PartNumber string `json:"part_number"`
	PartName   string `json:"part_name,omitempty"`
}

type ExportEntry struct {
	PartNumber string      `json:"part_number"`
	PartName   string      `json:"part_name"`
	Color      string      `json:"color"`
	Quantity   int         `json:"quantity"`
	Confidence float64     `json:"confidence"`
	BBox       BoundingBox `json:"bbox"`
}

type ExcludedPart struct {
	Index     int    `json:"index"`
	ImageName string `json:"image_name"`
	Reason    string `json:"reason"`
}

type ExportSummary struct {
	TotalParts    int            `json:"total_parts"`
	ExportedParts int            `json:"exported_parts"`
	SkippedCount  int            `json:"skipped_count"`
	UnknownCount  int            `json:"unknown_count"`
	Parts         []ExportEntry  `json:"parts"`
	Excluded      []ExcludedPart `json:"excluded"`
}

type BrickLinkExport struct {
	XML       string   `json:"xml"`
	ItemCount int      `json:"item_count"`
	Warnings  []string `json:"warnings,omitempty"`
}
