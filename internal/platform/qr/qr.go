// Package qr genera códigos QR para perfiles y lotes.
// La codificación queda delegada a la librería skip2/go-qrcode.
package qr

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	// DefaultScale replica el scale=10 del generador original (módulos de 10px).
	DefaultScale = 10

	minScale = 1
	maxScale = 40
)

var ErrEmptyContent = errors.New("qr: empty content")

// PNG devuelve los bytes PNG de un QR para la URL dada.
// scale es píxeles por módulo; un QR típico tiene ~33 módulos por lado.
func PNG(content string, scale int) ([]byte, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if scale < minScale || scale > maxScale {
		scale = DefaultScale
	}

	// Tamaño en píxeles aproximado a partir del scale (33 módulos base).
	return qrcode.Encode(content, qrcode.Medium, 33*scale)
}

// DataURL devuelve el QR como data URL base64, para respuestas JSON.
func DataURL(content string, scale int) (string, error) {
	png, err := PNG(content, scale)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("data:image/png;base64,%s", base64.StdEncoding.EncodeToString(png)), nil
}
