package guide

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"gopkg.in/yaml.v3"

	"github.com/kirillkom/beready-legal-assistant/internal/core/domain"
	"github.com/kirillkom/beready-legal-assistant/internal/core/ports"
)

const (
	metaCommentPrefix = "<!--META:"
	metaCommentSuffix = "-->"
	frontMatterFence  = "---"
	sidecarSuffix     = ".meta.yaml"
)

var whitespaceRun = regexp.MustCompile(`[ \t]+`)

type metadata struct {
	Title        string `json:"title" yaml:"title"`
	URL          string `json:"url" yaml:"url"`
	LastUpdated  string `json:"last_updated" yaml:"last_updated"`
	Topic        string `json:"topic" yaml:"topic"`
	Jurisdiction string `json:"jurisdiction" yaml:"jurisdiction"`
	Source       string `json:"source" yaml:"source"`
}

// Extractor turns a stored guide file into a domain.Guide. Markdown guides carry
// metadata inline; PDF guides read it from a "<name>.meta.yaml" sidecar.
type Extractor struct {
	storage ports.ObjectStorage
	pdfText func(data []byte) (string, error)
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{
		storage: storage,
		pdfText: readPDFText,
	}
}

func (e *Extractor) Extract(ctx context.Context, key string) (*domain.Guide, error) {
	raw, err := e.read(ctx, key)
	if err != nil {
		return nil, err
	}

	var (
		meta metadata
		body string
	)
	switch strings.ToLower(filepath.Ext(key)) {
	case ".pdf":
		body, err = e.pdfText(raw)
		if err != nil {
			return nil, domain.WrapError(domain.ErrInvalidInput, "extract pdf", err)
		}
		meta, err = e.sidecar(ctx, key)
	default:
		if !utf8.Valid(raw) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "extract markdown", fmt.Errorf("%s is not valid UTF-8", key))
		}
		meta, body, err = parseMarkdown(string(raw))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	if err := meta.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}

	return &domain.Guide{
		StorageKey:   key,
		Title:        meta.Title,
		URL:          meta.URL,
		LastUpdated:  meta.LastUpdated,
		Topic:        meta.Topic,
		Jurisdiction: meta.Jurisdiction,
		Source:       meta.Source,
		RawText:      strings.TrimSpace(body),
	}, nil
}

func (e *Extractor) read(ctx context.Context, key string) ([]byte, error) {
	reader, err := e.storage.Open(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("open guide: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read guide: %w", err)
	}
	return raw, nil
}

func (e *Extractor) sidecar(ctx context.Context, key string) (metadata, error) {
	sidecarKey := strings.TrimSuffix(key, filepath.Ext(key)) + sidecarSuffix
	raw, err := e.read(ctx, sidecarKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return metadata{}, domain.WrapError(domain.ErrInvalidInput, "pdf metadata", fmt.Errorf("missing sidecar %s", sidecarKey))
		}
		return metadata{}, err
	}
	var meta metadata
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return metadata{}, domain.WrapError(domain.ErrInvalidInput, "pdf metadata", err)
	}
	return meta, nil
}

func parseMarkdown(content string) (metadata, string, error) {
	content = strings.TrimLeft(content, "\ufeff \t\r\n")

	var meta metadata
	switch {
	case strings.HasPrefix(content, metaCommentPrefix):
		end := strings.Index(content, metaCommentSuffix)
		if end < 0 {
			return meta, "", domain.WrapError(domain.ErrInvalidInput, "markdown metadata", errors.New("unterminated META comment"))
		}
		payload := strings.TrimSpace(content[len(metaCommentPrefix):end])
		if err := json.Unmarshal([]byte(payload), &meta); err != nil {
			return meta, "", domain.WrapError(domain.ErrInvalidInput, "markdown metadata", err)
		}
		return meta, content[end+len(metaCommentSuffix):], nil

	case strings.HasPrefix(content, frontMatterFence+"\n") || strings.HasPrefix(content, frontMatterFence+"\r\n"):
		rest := content[strings.Index(content, "\n")+1:]
		end := strings.Index(rest, "\n"+frontMatterFence)
		if end < 0 {
			return meta, "", domain.WrapError(domain.ErrInvalidInput, "markdown metadata", errors.New("unterminated front matter"))
		}
		if err := yaml.Unmarshal([]byte(rest[:end]), &meta); err != nil {
			return meta, "", domain.WrapError(domain.ErrInvalidInput, "markdown metadata", err)
		}
		body := rest[end+len(frontMatterFence)+1:]
		if i := strings.Index(body, "\n"); i >= 0 {
			body = body[i+1:]
		} else {
			body = ""
		}
		return meta, body, nil
	}

	return meta, "", domain.WrapError(domain.ErrInvalidInput, "markdown metadata", errors.New("no metadata found"))
}

func (m metadata) validate() error {
	var missing []string
	for _, field := range []struct {
		name  string
		value string
	}{
		{"title", m.Title},
		{"url", m.URL},
		{"last_updated", m.LastUpdated},
		{"topic", m.Topic},
		{"jurisdiction", m.Jurisdiction},
		{"source", m.Source},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return domain.WrapError(domain.ErrInvalidInput, "guide metadata", fmt.Errorf("missing required fields: %s", strings.Join(missing, ", ")))
	}
	if !domain.Intent(m.Topic).IsTopic() {
		return domain.WrapError(domain.ErrInvalidInput, "guide metadata", fmt.Errorf("invalid topic %q, must be one of: tenancy, consumer, contracts", m.Topic))
	}
	return nil
}

func readPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	lines := strings.Split(buf.String(), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(whitespaceRun.ReplaceAllString(line, " "))
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n"), nil
}
