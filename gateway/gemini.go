package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tryonfusion/studio/studio"
)

// URLResolver turns an internal image reference (an S3 key or an external
// URL) into a fetchable URL.
type URLResolver func(ctx context.Context, ref string) (string, error)

// Client calls the Gemini image model. One instance per process.
type Client struct {
	client  *genai.Client
	model   string
	resolve URLResolver
}

// NewClient creates a Gemini-backed gateway.
func NewClient(ctx context.Context, apiKey, model string, resolve URLResolver) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Client{client: client, model: model, resolve: resolve}, nil
}

// Close releases the underlying API client.
func (c *Client) Close() error {
	return c.client.Close()
}

// GenerateModel turns a casual person photo into a neutral studio model shot.
func (c *Client) GenerateModel(ctx context.Context, personImage string, opts studio.ModelOptions) ([]byte, error) {
	prompt := fmt.Sprintf(`You are an expert fashion photographer AI.
Transform the person in this photo into a full-body fashion model shot suitable for an e-commerce website.
The background must be a clean, neutral studio backdrop (light gray, #f0f0f0).
The person should have a neutral, professional model expression.
Preserve the person's identity, unique features and body type exactly.
The final image must be photorealistic.

Gender: %s
Skin tone: %s
Hair color: %s
Additional style notes: %s
`, opts.Gender, opts.SkinTone, opts.HairColor, opts.StyleText)

	return c.generate(ctx, prompt, personImage)
}

// ApplyGarment renders the garment worn over the current look.
func (c *Client) ApplyGarment(ctx context.Context, baseImage, garmentImage string) ([]byte, error) {
	prompt := `You are an expert virtual try-on AI.
The first image is the model, the second image is a garment.
Create a new photorealistic image where the person from the first image is wearing the garment from the second image.
The garment must fit naturally over the existing outfit, adapting to the person's pose.
Do not change the person, the pose, or the background. The output must contain only the final image.`

	return c.generate(ctx, prompt, baseImage, garmentImage)
}

// VaryPose re-renders the image in a different camera pose.
func (c *Client) VaryPose(ctx context.Context, baseImage, poseInstruction string) ([]byte, error) {
	prompt := fmt.Sprintf(`You are an expert fashion photographer AI.
Regenerate this image from a different perspective: %s.
Keep the person, their outfit and the background identical. The output must contain only the final image.`, poseInstruction)

	return c.generate(ctx, prompt, baseImage)
}

// ChangeBackground places the model against the given background image.
func (c *Client) ChangeBackground(ctx context.Context, baseImage, background string) ([]byte, error) {
	prompt := `You are an expert photo compositing AI.
The first image is a model, the second image is a background scene.
Place the person from the first image into the background scene naturally, matching lighting and shadows.
Do not change the person, their pose or their outfit. The output must contain only the final image.`

	return c.generate(ctx, prompt, baseImage, background)
}

// Enhance re-renders the image at higher fidelity without changing content.
func (c *Client) Enhance(ctx context.Context, image string) ([]byte, error) {
	prompt := `Enhance this image to high-fidelity, sharp photographic quality.
Do not change the person, the outfit, the pose or the background in any way. The output must contain only the final image.`

	return c.generate(ctx, prompt, image)
}

// generate performs one request/response call: prompt plus the referenced
// images in order. Policy blocks and imageless responses surface as the
// typed errors in this package.
func (c *Client) generate(ctx context.Context, prompt string, imageRefs ...string) ([]byte, error) {
	model := c.client.GenerativeModel(c.model)

	parts := []genai.Part{genai.Text(prompt)}
	for _, ref := range imageRefs {
		if ref == "" {
			continue
		}
		data, format, err := c.fetchImage(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch image %s: %w", ref, err)
		}
		parts = append(parts, genai.ImageData(format, data))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return nil, fmt.Errorf("%w (reason: %s)", ErrPolicyBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return nil, ErrEmptyResult
	}
	cand := resp.Candidates[0]
	if cand.FinishReason == genai.FinishReasonSafety {
		return nil, fmt.Errorf("%w (finish reason: %s)", ErrPolicyBlocked, cand.FinishReason)
	}
	if cand.Content == nil || len(cand.Content.Parts) == 0 {
		return nil, ErrEmptyResult
	}

	// The model may interleave commentary text with the image; the first
	// blob wins. Text is only surfaced when no image came back at all.
	var textParts []string
	for _, part := range cand.Content.Parts {
		switch p := part.(type) {
		case genai.Blob:
			return p.Data, nil
		case genai.Text:
			textParts = append(textParts, string(p))
		}
	}
	if len(textParts) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyResult, strings.Join(textParts, " "))
	}
	return nil, ErrEmptyResult
}

// fetchImage resolves a reference to a URL and downloads it. Returns the
// image bytes and the format tag genai expects ("jpeg", "png", ...).
func (c *Client) fetchImage(ctx context.Context, ref string) ([]byte, string, error) {
	url := ref
	if c.resolve != nil {
		resolved, err := c.resolve(ctx, ref)
		if err != nil {
			return nil, "", err
		}
		url = resolved
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to fetch image, status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	format := "jpeg"
	if ct := resp.Header.Get("Content-Type"); strings.HasPrefix(ct, "image/") {
		format = strings.TrimPrefix(ct, "image/")
	}
	return data, format, nil
}

// Compile-time interface check.
var _ studio.Gateway = (*Client)(nil)
