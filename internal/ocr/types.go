package ocr

// Engine identifies a single OCR backend.
type Engine string

const (
	EngineTesseract    Engine = "tesseract"
	EngineEasyOCR      Engine = "easyocr"
	EnginePaddleOCR    Engine = "paddleocr"
	EngineRapidOCR     Engine = "rapidocr"
	EngineGoogleVision Engine = "google_vision"
)

// Tier represents a user's subscription tier. The tier influences which OCR
// backends the selector is allowed to choose.
type Tier string

const (
	TierFree     Tier = "free"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
)

// BoundingBox is a word's position in the page image's pixel coordinate
// space, regardless of the backend's native box representation.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Word is a single recognized word with normalized confidence in [0,1].
type Word struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Box        BoundingBox `json:"bbox"`
}

// Result is the normalized outcome of one backend invocation.
// Success=false implies empty text and zero confidence unless partial words
// were salvaged from the failing backend, in which case the confidence
// reflects only the salvaged words.
type Result struct {
	EngineUsed Engine  `json:"engine_used"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words"`
	Success    bool    `json:"success"`
	Error      string  `json:"error,omitempty"`
}

// PageImage is one rendered page handed to an OCR backend. The backends never
// mutate the image data.
type PageImage struct {
	PageNumber int
	Data       []byte
	Format     string
}

// ConfidenceScale declares the native confidence scale a backend reports on.
type ConfidenceScale int

const (
	// ScaleUnit is the [0.0, 1.0] range used by EasyOCR, PaddleOCR and RapidOCR.
	ScaleUnit ConfidenceScale = iota
	// ScalePercent is the [0, 100] range used by Tesseract.
	ScalePercent
)

// BoxKind declares a backend's native box geometry.
type BoxKind int

const (
	// BoxTopLeft is an origin point plus width/height.
	BoxTopLeft BoxKind = iota
	// BoxTwoPoint is a min corner and a max corner.
	BoxTwoPoint
	// BoxQuad is four corner points ordered clockwise from the top-left.
	BoxQuad
)

// Point is a single coordinate in pixel space.
type Point struct {
	X float64
	Y float64
}

// RawBox is a backend-native box prior to normalization.
type RawBox struct {
	Kind BoxKind
	// Points holds one point for BoxTopLeft (the origin), two for
	// BoxTwoPoint, and four for BoxQuad.
	Points []Point
	// Width and Height are only meaningful for BoxTopLeft.
	Width  float64
	Height float64
}

// RawWord is a recognized word exactly as the backend reported it.
type RawWord struct {
	Text       string
	Confidence float64
	Box        RawBox
}

// RawOutput is the backend-native result shape the adapter normalizes.
type RawOutput struct {
	Text  string
	Words []RawWord
	Scale ConfidenceScale
}
