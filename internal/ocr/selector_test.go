package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelector_Select(t *testing.T) {
	tests := []struct {
		name           string
		tier           Tier
		language       string
		isHandwritten  bool
		isMultilingual bool
		available      []Engine
		want           Engine
		wantErr        bool
	}{
		{
			name:      "business_tier_prefers_google_vision",
			tier:      TierBusiness,
			language:  "eng",
			available: []Engine{EngineTesseract, EngineGoogleVision},
			want:      EngineGoogleVision,
		},
		{
			name:          "business_tier_outranks_handwriting",
			tier:          TierBusiness,
			language:      "eng",
			isHandwritten: true,
			available:     []Engine{EngineTesseract, EngineGoogleVision, EngineEasyOCR},
			want:          EngineGoogleVision,
		},
		{
			name:          "handwritten_prefers_easyocr",
			tier:          TierFree,
			language:      "eng",
			isHandwritten: true,
			available:     []Engine{EngineTesseract, EngineEasyOCR, EnginePaddleOCR},
			want:          EngineEasyOCR,
		},
		{
			name:      "thai_prefers_paddleocr",
			tier:      TierFree,
			language:  "tha",
			available: []Engine{EngineTesseract, EnginePaddleOCR},
			want:      EnginePaddleOCR,
		},
		{
			name:      "simplified_chinese_prefers_paddleocr",
			tier:      TierPro,
			language:  "chi_sim",
			available: []Engine{EngineTesseract, EnginePaddleOCR, EngineRapidOCR},
			want:      EnginePaddleOCR,
		},
		{
			name:           "multilingual_prefers_easyocr",
			tier:           TierFree,
			language:       "eng",
			isMultilingual: true,
			available:      []Engine{EngineTesseract, EngineEasyOCR},
			want:           EngineEasyOCR,
		},
		{
			name:      "rapidocr_over_tesseract",
			tier:      TierFree,
			language:  "eng",
			available: []Engine{EngineTesseract, EngineRapidOCR},
			want:      EngineRapidOCR,
		},
		{
			name:      "tesseract_baseline",
			tier:      TierFree,
			language:  "eng",
			available: []Engine{EngineTesseract},
			want:      EngineTesseract,
		},
		{
			name:      "cjk_without_paddle_falls_through",
			tier:      TierFree,
			language:  "jpn",
			available: []Engine{EngineTesseract},
			want:      EngineTesseract,
		},
		{
			name:      "no_engines",
			tier:      TierBusiness,
			language:  "eng",
			available: nil,
			wantErr:   true,
		},
		{
			name:      "vision_only_free_tier",
			tier:      TierFree,
			language:  "eng",
			available: []Engine{EngineGoogleVision},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := NewSelector(NewAvailability(tt.available...))
			got, err := selector.Select(tt.tier, tt.language, tt.isHandwritten, tt.isMultilingual)

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoEngineAvailable)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelector_Deterministic(t *testing.T) {
	selector := NewSelector(NewAvailability(EngineTesseract, EngineEasyOCR, EngineRapidOCR, EngineGoogleVision))

	first, err := selector.Select(TierPro, "eng", true, true)
	assert.NoError(t, err)

	for i := 0; i < 50; i++ {
		got, err := selector.Select(TierPro, "eng", true, true)
		assert.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestAvailability_List(t *testing.T) {
	av := NewAvailability(EngineTesseract, EngineGoogleVision, EngineEasyOCR)

	assert.Equal(t, []Engine{EngineEasyOCR, EngineGoogleVision, EngineTesseract}, av.List())
	assert.True(t, av.Has(EngineTesseract))
	assert.False(t, av.Has(EnginePaddleOCR))
	assert.False(t, av.Empty())
	assert.True(t, NewAvailability().Empty())
}
