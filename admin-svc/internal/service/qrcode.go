package service

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

type QRGenerator interface {
	Generate(mealID string) ([]byte, error)
}

// DefaultQRGenerator encodes a link to the meal's storefront page.
type DefaultQRGenerator struct {
	BaseURL string
}

func (g DefaultQRGenerator) Link(mealID string) string {
	return fmt.Sprintf("%s/meals/%s", strings.TrimRight(g.BaseURL, "/"), url.PathEscape(mealID))
}

func (g DefaultQRGenerator) Generate(mealID string) ([]byte, error) {
	return qrcode.Encode(g.Link(mealID), qrcode.Medium, 256)
}
