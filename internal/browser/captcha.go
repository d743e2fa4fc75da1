package browser

import (
	"context"
	"fmt"
)

// CaptchaSelector matches the human-verification challenge served by the search engine.
const CaptchaSelector = `form[action*="sorry"] iframe, #captcha-form`

// HasCaptcha reports whether the current page shows a verification challenge.
func HasCaptcha(ctx context.Context, s Session) (bool, error) {
	n, err := s.CountElements(ctx, CaptchaSelector)
	if err != nil {
		return false, fmt.Errorf("failed to probe for captcha: %w", err)
	}
	return n > 0, nil
}
