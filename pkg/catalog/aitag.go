package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"
)

// Tagger suggests extra keywords for an image.
type Tagger interface {
	Tags(ctx context.Context, path string) ([]string, error)
}

// MaxSuggestedTags caps how many suggested keywords are kept.
var MaxSuggestedTags = 5

const tagPrompt = "为这张图片生成1到5个用逗号分隔的简体中文标签。" +
	"每个标签是一个专业摄影师或设计师整理作品时会使用的词语，不要组合多个词语，不要输出其他内容。" +
	"如果你知道拍摄地点，请加上地点名称作为标签。"

// GeminiTagger asks a Gemini model for keywords.
type GeminiTagger struct {
	client *genai.Client
	model  string
}

// NewGeminiTagger returns a tagger for the Gemini API.
func NewGeminiTagger(ctx context.Context, apiKey string, model string) (*GeminiTagger, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &GeminiTagger{client: client, model: model}, nil
}

// Tags implements Tagger.
func (g *GeminiTagger) Tags(ctx context.Context, path string) ([]string, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(bs, mimeType(path)),
		genai.NewPartFromText(tagPrompt),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	return parseTags(resp.Text()), nil
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	}
	return "image/jpeg"
}

// parseTags splits a comma separated model reply into at most MaxSuggestedTags keywords.
func parseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '，' || r == '、' || r == '\n' }) {
		t = strings.ToLower(strings.Join(strings.Fields(t), ""))
		if t == "" {
			continue
		}
		tags = append(tags, t)
		if len(tags) == MaxSuggestedTags {
			break
		}
	}
	return tags
}
