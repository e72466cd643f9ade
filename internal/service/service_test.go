package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookhavenapp/bookhaven-server/internal/media/images"
	"github.com/bookhavenapp/bookhaven-server/internal/search"
	"github.com/bookhavenapp/bookhaven-server/internal/sse"
	"github.com/bookhavenapp/bookhaven-server/internal/store/sqlite"
	"github.com/bookhavenapp/bookhaven-server/internal/validation"
)

type testEnv struct {
	store         *sqlite.Store
	storage       *images.Storage
	manager       *sse.Manager
	imageSvc      *ImageService
	bookSvc       *BookService
	userSvc       *UserService
	loanSvc       *LoanService
	notifications *NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	layout, err := images.NewLayout(filepath.Join(dir, "images"))
	require.NoError(t, err)

	processor := images.NewProcessor(layout, logger)
	storage := images.NewStorage(layout)
	manager := sse.NewManager(logger)
	v := validation.New()

	index, err := search.NewIndex(search.Options{
		DataPath: filepath.Join(dir, "search"),
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { index.Close() })

	imageSvc := NewImageService(store, processor, storage, manager, logger, "http://localhost:8080", 10<<20)
	notifications := NewNotificationService(store, manager, logger)

	return &testEnv{
		store:         store,
		storage:       storage,
		manager:       manager,
		imageSvc:      imageSvc,
		bookSvc:       NewBookService(store, imageSvc, index, manager, v, logger),
		userSvc:       NewUserService(store, v, logger),
		loanSvc:       NewLoanService(store, notifications, manager, logger),
		notifications: notifications,
	}
}

// pngBytes encodes a solid-color PNG of the given dimensions.
func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 60, B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
