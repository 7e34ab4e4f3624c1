package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"devfolio/portfolio-api/internal/apperr"
	"devfolio/portfolio-api/internal/models"
)

const (
	defaultTemperature     float32 = 0.1
	defaultMaxOutputTokens int32   = 4000
	defaultEndpoint                = "default"
)

type ExtractionResult struct {
	Profile             map[string]interface{}
	Model               string
	TokensUsed          int32
	ExtractedTextLength int
}

// ExtractorService runs the résumé-to-profile pipeline: source text (or PDF,
// text-extracted first) + schema + instruction prompt -> model -> best-effort
// JSON parse -> metadata/media normalization.
type ExtractorService interface {
	ExtractFromText(ctx context.Context, resumeText, endpoint string, cfg *models.ModelConfig) (*ExtractionResult, error)
	ExtractFromPDF(ctx context.Context, pdfBytes []byte, endpoint string, cfg *models.ModelConfig) (*ExtractionResult, error)
}

type extractorService struct {
	modelClient   ModelClient
	pdfParser     PDFParserService
	schema        SchemaLoader
	promptBuilder *PromptBuilder
	defaultModel  string
	log           *logrus.Logger
}

func NewExtractorService(
	modelClient ModelClient,
	pdfParser PDFParserService,
	schema SchemaLoader,
	defaultModel string,
	log *logrus.Logger,
) ExtractorService {
	return &extractorService{
		modelClient:   modelClient,
		pdfParser:     pdfParser,
		schema:        schema,
		promptBuilder: NewPromptBuilder(),
		defaultModel:  defaultModel,
		log:           log,
	}
}

// ExtractFromText implements ExtractorService.
func (e *extractorService) ExtractFromText(ctx context.Context, resumeText, endpoint string, cfg *models.ModelConfig) (*ExtractionResult, error) {
	const op = "ExtractorService.ExtractFromText"

	if strings.TrimSpace(resumeText) == "" {
		return nil, apperr.E(apperr.CodeEmptyInput, op, "Resume text is required", nil)
	}

	return e.extract(ctx, resumeText, endpoint, cfg)
}

// ExtractFromPDF implements ExtractorService.
func (e *extractorService) ExtractFromPDF(ctx context.Context, pdfBytes []byte, endpoint string, cfg *models.ModelConfig) (*ExtractionResult, error) {
	const op = "ExtractorService.ExtractFromPDF"

	if len(pdfBytes) == 0 {
		return nil, apperr.E(apperr.CodeEmptyInput, op, "PDF buffer is required", nil)
	}

	text, err := e.pdfParser.ExtractTextFromBytes(pdfBytes)
	if err != nil {
		return nil, err
	}

	e.log.WithField("chars", len(text)).Debug("extracted text from PDF")

	result, err := e.extract(ctx, text, endpoint, cfg)
	if err != nil {
		return nil, err
	}

	result.ExtractedTextLength = len(text)
	return result, nil
}

func (e *extractorService) extract(ctx context.Context, resumeText, endpoint string, cfg *models.ModelConfig) (*ExtractionResult, error) {
	const op = "ExtractorService.extract"

	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	if !ValidEndpoint(endpoint) {
		return nil, apperr.E(apperr.CodeValidation, op, "endpoint must be an alphanumeric slug (max 64 chars)", nil)
	}

	modelName := e.defaultModel
	temperature := defaultTemperature
	maxTokens := defaultMaxOutputTokens
	if cfg != nil {
		if cfg.Model != "" {
			modelName = cfg.Model
		}
		if cfg.Temperature != nil {
			temperature = *cfg.Temperature
		}
		if cfg.MaxTokens != nil {
			maxTokens = *cfg.MaxTokens
		}
	}

	prompt := e.promptBuilder.BuildExtractionPrompt(e.schema.SchemaDocument(), resumeText)

	e.log.WithFields(logrus.Fields{
		"model":        modelName,
		"endpoint":     endpoint,
		"prompt_chars": len(prompt),
	}).Info("invoking model for resume extraction")

	resp, err := e.modelClient.Generate(ctx, ModelRequest{
		Model:             modelName,
		SystemInstruction: ExtractionSystemInstruction,
		Prompt:            prompt,
		Temperature:       temperature,
		MaxOutputTokens:   maxTokens,
	})
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(resp.Text) == "" {
		return nil, apperr.E(apperr.CodeEmptyModelOutput, op, "model returned an empty response", nil)
	}

	profile, err := parseModelJSON(resp.Text)
	if err != nil {
		return nil, err
	}

	normalizeProfile(profile, endpoint, time.Now().UTC())

	e.log.WithFields(logrus.Fields{
		"model":       modelName,
		"endpoint":    endpoint,
		"tokens_used": resp.TokensUsed,
	}).Info("resume extraction completed")

	return &ExtractionResult{
		Profile:    profile,
		Model:      modelName,
		TokensUsed: resp.TokensUsed,
	}, nil
}

// parseModelJSON parses the model reply: prefer the first balanced {...}
// span, else attempt the whole response, else fail. Malformed JSON is never
// repaired semantically.
func parseModelJSON(response string) (map[string]interface{}, error) {
	const op = "ExtractorService.parseModelJSON"

	var profile map[string]interface{}

	if span, ok := extractJSONObject(response); ok {
		if err := json.Unmarshal([]byte(span), &profile); err == nil {
			return profile, nil
		}
	}

	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &profile); err != nil {
		return nil, apperr.E(apperr.CodeUnparsableOutput, op, "model output is not valid JSON", err)
	}

	return profile, nil
}

// extractJSONObject returns the first top-level balanced {...} substring of
// text. Models wrap JSON in prose or markdown fences often enough that the
// raw response cannot be fed to the JSON decoder directly.
func extractJSONObject(text string) (string, bool) {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	start := strings.Index(text, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}

	return "", false
}

// normalizeProfile stamps the metadata and media blocks. The endpoint is
// always taken from the request, overriding whatever the model emitted; all
// other fields are filled only when absent.
func normalizeProfile(profile map[string]interface{}, endpoint string, now time.Time) {
	timestamp := now.Format(time.RFC3339)

	metadata, ok := profile["metadata"].(map[string]interface{})
	if !ok {
		metadata = map[string]interface{}{}
		profile["metadata"] = metadata
	}
	metadata["endpoint"] = endpoint
	setIfAbsent(metadata, "version", "1.0")
	setIfAbsent(metadata, "lastUpdated", timestamp)
	setIfAbsent(metadata, "created", timestamp)
	setIfAbsent(metadata, "updatedBy", "resume-import")
	setIfAbsent(metadata, "tags", []interface{}{})

	media, ok := profile["media"].(map[string]interface{})
	if !ok {
		media = map[string]interface{}{}
		profile["media"] = media
	}
	setIfAbsent(media, "profilePhoto", "")

	documents, ok := media["documents"].(map[string]interface{})
	if !ok {
		documents = map[string]interface{}{}
		media["documents"] = documents
	}
	setIfAbsent(documents, "cvPdf", "")
}

func setIfAbsent(m map[string]interface{}, key string, value interface{}) {
	if v, ok := m[key]; !ok || v == nil {
		m[key] = value
	}
}
