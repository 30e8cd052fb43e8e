package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/anubhavg-in/receipt-extraction-service/internal/classifier"
	"github.com/anubhavg-in/receipt-extraction-service/internal/domain"
	"github.com/anubhavg-in/receipt-extraction-service/internal/imageutil"
	"github.com/anubhavg-in/receipt-extraction-service/internal/ocr"
	"github.com/anubhavg-in/receipt-extraction-service/internal/pipeline"
	"github.com/anubhavg-in/receipt-extraction-service/internal/repository"
	"github.com/anubhavg-in/receipt-extraction-service/internal/storage"
)

// terminalEvent records one background run reaching a terminal state.
// An empty kind means the run completed.
type terminalEvent struct {
	id   string
	kind string
}

type fakeRepository struct {
	mu       sync.Mutex
	receipts map[string]*domain.Receipt
	terminal chan terminalEvent
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		receipts: make(map[string]*domain.Receipt),
		terminal: make(chan terminalEvent, 16),
	}
}

func (r *fakeRepository) CreateReceipt(_ context.Context, receipt *domain.Receipt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *receipt
	r.receipts[receipt.ID] = &cp
	return nil
}

func (r *fakeRepository) CompleteReceipt(_ context.Context, id string, result *domain.ReceiptExtractionResult) error {
	r.mu.Lock()
	receipt, ok := r.receipts[id]
	if ok {
		receipt.Status = domain.StatusCompleted
		receipt.Extraction = result
	}
	r.mu.Unlock()
	if !ok {
		return repository.ErrNotFound
	}
	r.terminal <- terminalEvent{id: id}
	return nil
}

func (r *fakeRepository) FailReceipt(_ context.Context, id string, failureKind string) error {
	r.mu.Lock()
	receipt, ok := r.receipts[id]
	if ok {
		receipt.Status = domain.StatusFailed
		receipt.FailureKind = failureKind
	}
	r.mu.Unlock()
	if !ok {
		return repository.ErrNotFound
	}
	r.terminal <- terminalEvent{id: id, kind: failureKind}
	return nil
}

func (r *fakeRepository) GetReceiptByID(_ context.Context, id string) (*domain.Receipt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	receipt, ok := r.receipts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *receipt
	return &cp, nil
}

func (r *fakeRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.receipts)
}

func (r *fakeRepository) row(t *testing.T, id string) domain.Receipt {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	receipt, ok := r.receipts[id]
	if !ok {
		t.Fatalf("receipt %q not found in repository", id)
	}
	return *receipt
}

type stubStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newStubStorage() *stubStorage {
	return &stubStorage{objects: make(map[string][]byte)}
}

func (s *stubStorage) Put(_ context.Context, key string, data []byte, _ string) (domain.StoredAsset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return domain.StoredAsset{Key: key, URL: "stub://" + key, SizeBytes: int64(len(data))}, nil
}

func (s *stubStorage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (s *stubStorage) Presign(key string, _ time.Duration) (string, error) {
	return "stub://" + key, nil
}

type stubRecognizer struct {
	result *domain.RecognitionResult
	err    error
}

func (s *stubRecognizer) Recognize(_ context.Context, _ []byte, _ []string) (*domain.RecognitionResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

// gatedRecognizer blocks each call until released and records the highest
// number of calls in flight at once.
type gatedRecognizer struct {
	mu      sync.Mutex
	active  int
	maxSeen int
	release chan struct{}
}

func (g *gatedRecognizer) Recognize(_ context.Context, _ []byte, _ []string) (*domain.RecognitionResult, error) {
	g.mu.Lock()
	g.active++
	if g.active > g.maxSeen {
		g.maxSeen = g.active
	}
	g.mu.Unlock()

	<-g.release

	g.mu.Lock()
	g.active--
	g.mu.Unlock()
	return &domain.RecognitionResult{Text: "Apples 2.50", Confidence: 90}, nil
}

func (g *gatedRecognizer) peak() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxSeen
}

func newTestService(repo *fakeRepository, rec ocr.Recognizer, store *stubStorage, maxWorkers int) ReceiptService {
	coordinator := pipeline.NewCoordinator(store, rec, classifier.New(nil), zerolog.Nop())
	return NewReceiptService(repo, coordinator, store, Options{}, maxWorkers, zerolog.Nop())
}

func receiptImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 300))
	for y := 0; y < 300; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.White)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func waitTerminal(t *testing.T, repo *fakeRepository) terminalEvent {
	t.Helper()
	select {
	case ev := <-repo.terminal:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a terminal state")
	}
	return terminalEvent{}
}

func TestScanReceiptPersistsResultOnSuccess(t *testing.T) {
	repo := newFakeRepository()
	rec := &stubRecognizer{result: &domain.RecognitionResult{Text: "Apples 2.50\nTotal 2.50", Confidence: 90}}
	svc := newTestService(repo, rec, newStubStorage(), 2)

	receipt, err := svc.ScanReceipt(context.Background(), receiptImage(t), "image/png")
	if err != nil {
		t.Fatalf("ScanReceipt() error = %v", err)
	}
	if receipt.Status != domain.StatusProcessing {
		t.Errorf("acknowledged status = %q, want processing", receipt.Status)
	}
	if receipt.ID == "" {
		t.Error("acknowledged receipt has no ID")
	}

	ev := waitTerminal(t, repo)
	if ev.kind != "" {
		t.Fatalf("run failed with kind %q, want completion", ev.kind)
	}

	row := repo.row(t, receipt.ID)
	if row.Status != domain.StatusCompleted {
		t.Errorf("persisted status = %q, want completed", row.Status)
	}
	if row.Extraction == nil {
		t.Fatal("persisted row has no extraction result")
	}
	if len(row.Extraction.Items) != 1 {
		t.Errorf("persisted %d items, want 1", len(row.Extraction.Items))
	}
}

func TestScanReceiptRecordsFailureKindOnRecognitionExhaustion(t *testing.T) {
	repo := newFakeRepository()
	rec := &stubRecognizer{err: ocr.ErrRecognitionFailed}
	svc := newTestService(repo, rec, newStubStorage(), 2)

	receipt, err := svc.ScanReceipt(context.Background(), receiptImage(t), "image/png")
	if err != nil {
		t.Fatalf("ScanReceipt() error = %v", err)
	}

	ev := waitTerminal(t, repo)
	if ev.kind != "recognition_failed" {
		t.Errorf("failure kind = %q, want recognition_failed", ev.kind)
	}

	row := repo.row(t, receipt.ID)
	if row.Status != domain.StatusFailed {
		t.Errorf("persisted status = %q, want failed", row.Status)
	}
}

func TestScanReceiptRejectsOversizedUploadImmediately(t *testing.T) {
	repo := newFakeRepository()
	svc := newTestService(repo, &stubRecognizer{}, newStubStorage(), 2)

	oversized := make([]byte, imageutil.DefaultMaxImageBytes+1)
	_, err := svc.ScanReceipt(context.Background(), oversized, "image/png")
	if !errors.Is(err, imageutil.ErrTooLarge) {
		t.Fatalf("ScanReceipt() error = %v, want ErrTooLarge", err)
	}
	if repo.count() != 0 {
		t.Errorf("repository holds %d rows after rejected upload, want 0", repo.count())
	}
}

func TestWorkerPoolCapsConcurrentRuns(t *testing.T) {
	const maxWorkers = 2
	const uploads = 5

	repo := newFakeRepository()
	gate := &gatedRecognizer{release: make(chan struct{})}
	svc := newTestService(repo, gate, newStubStorage(), maxWorkers)

	img := receiptImage(t)
	for i := 0; i < uploads; i++ {
		if _, err := svc.ScanReceipt(context.Background(), img, "image/png"); err != nil {
			t.Fatalf("ScanReceipt() error = %v", err)
		}
	}

	// Let the first runs reach the recognizer before releasing any.
	time.Sleep(50 * time.Millisecond)
	for i := 0; i < uploads; i++ {
		gate.release <- struct{}{}
	}
	for i := 0; i < uploads; i++ {
		waitTerminal(t, repo)
	}

	if peak := gate.peak(); peak > maxWorkers {
		t.Errorf("observed %d concurrent runs, want at most %d", peak, maxWorkers)
	}
}

func TestReprocessReceiptRerunsFromStoredEnhanced(t *testing.T) {
	repo := newFakeRepository()
	store := newStubStorage()
	rec := &stubRecognizer{result: &domain.RecognitionResult{Text: "Bread 3.20", Confidence: 85}}
	svc := newTestService(repo, rec, store, 2)

	const id = "existing-receipt"
	if err := repo.CreateReceipt(context.Background(), &domain.Receipt{ID: id, Status: domain.StatusCompleted}); err != nil {
		t.Fatalf("seed repository: %v", err)
	}
	key := storage.DerivativeKey(id, domain.RoleEnhanced)
	if _, err := store.Put(context.Background(), key, receiptImage(t), "image/png"); err != nil {
		t.Fatalf("seed storage: %v", err)
	}

	receipt, err := svc.ReprocessReceipt(context.Background(), id)
	if err != nil {
		t.Fatalf("ReprocessReceipt() error = %v", err)
	}
	if receipt.Status != domain.StatusProcessing {
		t.Errorf("acknowledged status = %q, want processing", receipt.Status)
	}

	ev := waitTerminal(t, repo)
	if ev.kind != "" {
		t.Fatalf("reprocess failed with kind %q, want completion", ev.kind)
	}

	row := repo.row(t, id)
	if row.Extraction == nil {
		t.Fatal("reprocessed row has no extraction result")
	}
	if math.Abs(row.Extraction.CalculatedTotal-3.20) > 0.001 {
		t.Errorf("calculated total = %v, want 3.20", row.Extraction.CalculatedTotal)
	}
}

func TestReprocessReceiptUnknownID(t *testing.T) {
	svc := newTestService(newFakeRepository(), &stubRecognizer{}, newStubStorage(), 2)

	_, err := svc.ReprocessReceipt(context.Background(), "no-such-receipt")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("ReprocessReceipt() error = %v, want ErrNotFound", err)
	}
}

func TestFailureKindMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid format", imageutil.ErrInvalidFormat, "invalid_format"},
		{"too large", imageutil.ErrTooLarge, "too_large"},
		{"corrupted, wrapped", fmt.Errorf("validate image: %w", imageutil.ErrCorrupted), "corrupted"},
		{"recognition failed, wrapped", fmt.Errorf("recognize text: %w", ocr.ErrRecognitionFailed), "recognition_failed"},
		{"anything else", errors.New("disk on fire"), "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FailureKind(tt.err); got != tt.want {
				t.Errorf("FailureKind(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
