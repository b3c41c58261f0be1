package services

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/HSouheill/sm_online_shop/config"
	"github.com/HSouheill/sm_online_shop/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestWriteInvoicePDF(t *testing.T) {
	order := &models.Order{
		ID:     primitive.NewObjectID(),
		UserID: primitive.NewObjectID(),
		Products: []models.OrderProduct{
			{Title: "Café table", SellingPrice: 120, Quantity: 1},
			{Title: strings.Repeat("Very long product name ", 5), SellingPrice: 2.5, Quantity: 4},
		},
		Total:     130,
		CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	customer := &models.Account{Name: "Ada", Email: "ada@example.com"}

	var buf bytes.Buffer
	err := WriteInvoicePDF(&buf, order, customer, "https://shop.example.com/orders")
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 1000)
}

func TestWriteInvoicePDFWithoutQR(t *testing.T) {
	order := &models.Order{ID: primitive.NewObjectID(), CreatedAt: time.Now()}

	var buf bytes.Buffer
	require.NoError(t, WriteInvoicePDF(&buf, order, nil, ""))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestInvoiceFilename(t *testing.T) {
	id, err := primitive.ObjectIDFromHex("64b7f0c2a1b2c3d4e5f60718")
	require.NoError(t, err)
	assert.Equal(t, "invoice-64b7f0c2a1b2c3d4e5f60718.pdf", InvoiceFilename(&models.Order{ID: id}))
}

func TestInvoiceURL(t *testing.T) {
	id, err := primitive.ObjectIDFromHex("64b7f0c2a1b2c3d4e5f60718")
	require.NoError(t, err)
	order := &models.Order{ID: id}
	assert.Equal(t, "https://shop.example.com/orders/64b7f0c2a1b2c3d4e5f60718", InvoiceURL("https://shop.example.com", order))
	assert.Equal(t, "https://shop.example.com/orders/64b7f0c2a1b2c3d4e5f60718", InvoiceURL("https://shop.example.com/", order))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func pngUpload(t *testing.T, filename string) *multipart.FileHeader {
	t.Helper()

	var img bytes.Buffer
	require.NoError(t, png.Encode(&img, image.NewGray(image.Rect(0, 0, 8, 8))))

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(img.Bytes())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["image"][0]
}

func TestLocalImageStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "images")
	store, err := NewLocalImageStore(dir)
	require.NoError(t, err)

	url, err := store.Save(context.Background(), pngUpload(t, "chair.png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/images/"))
	assert.True(t, strings.HasSuffix(url, "-chair.png"))

	path := filepath.Join(dir, strings.TrimPrefix(url, "/images/"))
	_, err = os.Stat(path)
	require.NoError(t, err)

	require.NoError(t, store.Delete(context.Background(), url))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// Deleting twice or deleting foreign URLs is not an error
	assert.NoError(t, store.Delete(context.Background(), url))
	assert.NoError(t, store.Delete(context.Background(), "https://cdn.example.com/x.png"))
}

func TestNewImageStoreDefaultsToLocal(t *testing.T) {
	cfg := &config.AppConfig{ImageStore: "local", UploadDir: t.TempDir()}
	store, err := NewImageStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &LocalImageStore{}, store)
}

func TestNewS3ImageStoreRequiresBucket(t *testing.T) {
	_, err := NewS3ImageStore(&config.AppConfig{ImageStore: "s3"})
	assert.Error(t, err)
}

func TestNewS3ImageStorePublicURL(t *testing.T) {
	store, err := NewS3ImageStore(&config.AppConfig{
		S3Endpoint: "storage.example.com",
		S3Bucket:   "shop",
		S3UseSSL:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "https://storage.example.com/shop", store.publicURL)
	assert.Equal(t, "products/a.png", store.objectKey("a.png"))
	// URLs outside the bucket are ignored without contacting the server
	assert.NoError(t, store.Delete(context.Background(), "/images/a.png"))
}

func TestNewMailerWithoutSMTP(t *testing.T) {
	mailer, err := NewMailer(&config.AppConfig{Env: "development"})
	require.NoError(t, err)
	assert.IsType(t, LogMailer{}, mailer)
	assert.NoError(t, mailer.SendPasswordReset("ada@example.com", "Ada", "http://localhost/reset"))
}

func TestNewMailerRequiresSMTPInProduction(t *testing.T) {
	mailer, err := NewMailer(&config.AppConfig{Env: "production"})
	assert.ErrorIs(t, err, ErrSMTPRequired)
	assert.Nil(t, mailer)

	mailer, err = NewMailer(&config.AppConfig{Env: "production", SMTPHost: "smtp.example.com", SMTPPort: 587, FromEmail: "shop@example.com"})
	require.NoError(t, err)
	assert.IsType(t, &SMTPMailer{}, mailer)
}

func TestResetBodyEscapes(t *testing.T) {
	body := resetBody("<b>Eve</b>", "http://localhost/auth/user/new-password?token=abc&x=1")
	assert.Contains(t, body, "&lt;b&gt;Eve&lt;/b&gt;")
	assert.Contains(t, body, "token=abc&amp;x=1")
}
