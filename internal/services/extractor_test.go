package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devfolio/portfolio-api/internal/apperr"
	"devfolio/portfolio-api/internal/models"
)

type fakeModelClient struct {
	response string
	err      error
	calls    int
	lastReq  ModelRequest
}

func (f *fakeModelClient) Generate(ctx context.Context, req ModelRequest) (*ModelResponse, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &ModelResponse{Text: f.response, TokensUsed: 321}, nil
}

type fakePDFParser struct {
	text string
	err  error
}

func (f *fakePDFParser) ExtractText(filePath string) (string, error) { return f.text, f.err }
func (f *fakePDFParser) ExtractTextFromBytes(data []byte) (string, error) {
	return f.text, f.err
}

type staticSchema struct{ doc string }

func (s staticSchema) SchemaDocument() string { return s.doc }

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestExtractor(client ModelClient, parser PDFParserService) ExtractorService {
	return NewExtractorService(
		client,
		parser,
		staticSchema{doc: `{"type":"object"}`},
		"gemini-2.5-flash",
		testLogger(),
	)
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		ok       bool
	}{
		{
			name:     "bare object",
			input:    `{"a":1}`,
			expected: `{"a":1}`,
			ok:       true,
		},
		{
			name:     "prose wrapped",
			input:    "Here is the JSON:\n{\"personalInfo\":{\"fullName\":\"Ada\"}}\nThanks",
			expected: `{"personalInfo":{"fullName":"Ada"}}`,
			ok:       true,
		},
		{
			name:     "markdown fences",
			input:    "```json\n{\"a\":{\"b\":2}}\n```",
			expected: `{"a":{"b":2}}`,
			ok:       true,
		},
		{
			name:     "braces inside strings are ignored",
			input:    `x {"note":"uses { and } freely","n":1} y`,
			expected: `{"note":"uses { and } freely","n":1}`,
			ok:       true,
		},
		{
			name:     "escaped quote inside string",
			input:    `{"s":"he said \"hi\" {"}`,
			expected: `{"s":"he said \"hi\" {"}`,
			ok:       true,
		},
		{
			name:  "no opening brace",
			input: "just prose, no json here",
			ok:    false,
		},
		{
			name:  "unbalanced",
			input: `{"a": {"b": 1}`,
			ok:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractJSONObject(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, got)
			}
		})
	}
}

func TestParseModelJSON(t *testing.T) {
	t.Run("picks first balanced span", func(t *testing.T) {
		out, err := parseModelJSON("Sure!\n{\"a\":1}\nand also {\"b\":2}")
		require.NoError(t, err)
		assert.Equal(t, float64(1), out["a"])
		assert.NotContains(t, out, "b")
	})

	t.Run("no json at all", func(t *testing.T) {
		_, err := parseModelJSON("I could not process this resume.")
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeUnparsableOutput))
	})

	t.Run("malformed json is not repaired", func(t *testing.T) {
		_, err := parseModelJSON(`{"a": 1,}`)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeUnparsableOutput))
	})
}

func TestExtractFromTextEmptyInput(t *testing.T) {
	client := &fakeModelClient{response: `{}`}
	extractor := newTestExtractor(client, &fakePDFParser{})

	for _, input := range []string{"", "   ", "\n\t "} {
		_, err := extractor.ExtractFromText(context.Background(), input, "ada", nil)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeEmptyInput))
	}

	assert.Zero(t, client.calls, "model must not be invoked for empty input")
}

func TestExtractFromTextDefaults(t *testing.T) {
	client := &fakeModelClient{response: `{"personalInfo":{"fullName":"Ada Lovelace"}}`}
	extractor := newTestExtractor(client, &fakePDFParser{})

	result, err := extractor.ExtractFromText(context.Background(), "Ada Lovelace, mathematician", "ada", nil)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash", result.Model)
	assert.Equal(t, int32(321), result.TokensUsed)

	assert.Equal(t, "gemini-2.5-flash", client.lastReq.Model)
	assert.Equal(t, float32(0.1), client.lastReq.Temperature)
	assert.Equal(t, int32(4000), client.lastReq.MaxOutputTokens)
	assert.Equal(t, ExtractionSystemInstruction, client.lastReq.SystemInstruction)
	assert.Contains(t, client.lastReq.Prompt, "Ada Lovelace, mathematician")
	assert.Contains(t, client.lastReq.Prompt, `{"type":"object"}`)
}

func TestExtractFromTextConfigOverrides(t *testing.T) {
	client := &fakeModelClient{response: `{}`}
	extractor := newTestExtractor(client, &fakePDFParser{})

	temp := float32(0.7)
	maxTokens := int32(1234)
	cfg := &models.ModelConfig{Model: "gemini-2.5-pro", Temperature: &temp, MaxTokens: &maxTokens}

	result, err := extractor.ExtractFromText(context.Background(), "some resume", "ada", cfg)
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-pro", result.Model)
	assert.Equal(t, "gemini-2.5-pro", client.lastReq.Model)
	assert.Equal(t, float32(0.7), client.lastReq.Temperature)
	assert.Equal(t, int32(1234), client.lastReq.MaxOutputTokens)
}

func TestExtractFromTextProseWrappedResponse(t *testing.T) {
	client := &fakeModelClient{
		response: "Here is the JSON:\n{\"personalInfo\":{\"fullName\":\"Ada\"}}\nThanks",
	}
	extractor := newTestExtractor(client, &fakePDFParser{})

	result, err := extractor.ExtractFromText(context.Background(), "resume", "ada", nil)
	require.NoError(t, err)

	personal, ok := result.Profile["personalInfo"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Ada", personal["fullName"])
}

func TestExtractFromTextEmptyModelResponse(t *testing.T) {
	client := &fakeModelClient{response: "   "}
	extractor := newTestExtractor(client, &fakePDFParser{})

	_, err := extractor.ExtractFromText(context.Background(), "resume", "ada", nil)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeEmptyModelOutput))
}

func TestExtractFromTextUnparsableModelResponse(t *testing.T) {
	client := &fakeModelClient{response: "no braces anywhere in this reply"}
	extractor := newTestExtractor(client, &fakePDFParser{})

	_, err := extractor.ExtractFromText(context.Background(), "resume", "ada", nil)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeUnparsableOutput))
}

func TestExtractEndpointStamping(t *testing.T) {
	t.Run("request endpoint wins over the model", func(t *testing.T) {
		client := &fakeModelClient{response: `{"metadata":{"endpoint":"model-made-this-up"}}`}
		extractor := newTestExtractor(client, &fakePDFParser{})

		result, err := extractor.ExtractFromText(context.Background(), "resume", "ada", nil)
		require.NoError(t, err)

		metadata := result.Profile["metadata"].(map[string]interface{})
		assert.Equal(t, "ada", metadata["endpoint"])
	})

	t.Run("missing endpoint falls back to default", func(t *testing.T) {
		client := &fakeModelClient{response: `{}`}
		extractor := newTestExtractor(client, &fakePDFParser{})

		result, err := extractor.ExtractFromText(context.Background(), "resume", "", nil)
		require.NoError(t, err)

		metadata := result.Profile["metadata"].(map[string]interface{})
		assert.Equal(t, "default", metadata["endpoint"])
	})

	t.Run("traversal endpoint is rejected", func(t *testing.T) {
		client := &fakeModelClient{response: `{}`}
		extractor := newTestExtractor(client, &fakePDFParser{})

		_, err := extractor.ExtractFromText(context.Background(), "resume", "../etc", nil)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeValidation))
	})
}

func TestNormalizeProfile(t *testing.T) {
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	t.Run("fills absent metadata and media", func(t *testing.T) {
		profile := map[string]interface{}{}
		normalizeProfile(profile, "ada", now)

		metadata := profile["metadata"].(map[string]interface{})
		assert.Equal(t, "ada", metadata["endpoint"])
		assert.Equal(t, "1.0", metadata["version"])
		assert.Equal(t, "2026-03-14T09:26:53Z", metadata["created"])
		assert.Equal(t, "2026-03-14T09:26:53Z", metadata["lastUpdated"])
		assert.Equal(t, "resume-import", metadata["updatedBy"])
		assert.Equal(t, []interface{}{}, metadata["tags"])

		media := profile["media"].(map[string]interface{})
		assert.Equal(t, "", media["profilePhoto"])
		documents := media["documents"].(map[string]interface{})
		assert.Equal(t, "", documents["cvPdf"])
	})

	t.Run("never overwrites provided values", func(t *testing.T) {
		profile := map[string]interface{}{
			"metadata": map[string]interface{}{
				"version":   "3.2",
				"updatedBy": "carol",
				"tags":      []interface{}{"imported"},
			},
			"media": map[string]interface{}{
				"profilePhoto": "/api/files/photo/photo-ada.png",
				"documents":    map[string]interface{}{"cvPdf": "/api/files/cv/cv-ada.pdf"},
			},
		}
		normalizeProfile(profile, "ada", now)

		metadata := profile["metadata"].(map[string]interface{})
		assert.Equal(t, "3.2", metadata["version"])
		assert.Equal(t, "carol", metadata["updatedBy"])
		assert.Equal(t, []interface{}{"imported"}, metadata["tags"])

		media := profile["media"].(map[string]interface{})
		assert.Equal(t, "/api/files/photo/photo-ada.png", media["profilePhoto"])
		documents := media["documents"].(map[string]interface{})
		assert.Equal(t, "/api/files/cv/cv-ada.pdf", documents["cvPdf"])
	})
}

func TestExtractFromPDF(t *testing.T) {
	t.Run("extracted text feeds the pipeline", func(t *testing.T) {
		client := &fakeModelClient{response: `{"summary":"engineer"}`}
		parser := &fakePDFParser{text: "Ada Lovelace\nAnalytical Engine programmer"}
		extractor := newTestExtractor(client, parser)

		result, err := extractor.ExtractFromPDF(context.Background(), []byte("%PDF-1.4 stub"), "ada", nil)
		require.NoError(t, err)

		assert.Equal(t, len(parser.text), result.ExtractedTextLength)
		assert.Contains(t, client.lastReq.Prompt, "Analytical Engine")
	})

	t.Run("empty buffer", func(t *testing.T) {
		client := &fakeModelClient{response: `{}`}
		extractor := newTestExtractor(client, &fakePDFParser{})

		_, err := extractor.ExtractFromPDF(context.Background(), nil, "ada", nil)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeEmptyInput))
		assert.Zero(t, client.calls)
	})

	t.Run("unreadable document", func(t *testing.T) {
		client := &fakeModelClient{response: `{}`}
		parser := &fakePDFParser{err: apperr.E(apperr.CodeUnreadableDoc, "test", "no text content found in PDF", nil)}
		extractor := newTestExtractor(client, parser)

		_, err := extractor.ExtractFromPDF(context.Background(), []byte("junk"), "ada", nil)
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeUnreadableDoc))
		assert.Zero(t, client.calls)
	})
}

func TestExtractModelFailureIsTerminal(t *testing.T) {
	client := &fakeModelClient{err: apperr.E(apperr.CodeUpstream, "test", "model API call failed", nil)}
	extractor := newTestExtractor(client, &fakePDFParser{})

	_, err := extractor.ExtractFromText(context.Background(), "resume", "ada", nil)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeUpstream))
	assert.Equal(t, 1, client.calls, "no retry on upstream failure")
}
