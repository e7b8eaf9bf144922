package http

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"grana/internal/domain/category"
	"grana/internal/domain/ofximport"
	"grana/internal/domain/transaction"
	"grana/internal/domain/upload"
	"grana/internal/shared/middleware"
)

const sampleOFX = `OFXHEADER:100

<OFX>
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240305
<TRNAMT>-45.00
<FITID>A1
<MEMO>UBER TRIP 1234
</STMTTRN>
</BANKTRANLIST>
</OFX>
`

// memFileStore keeps stored files in memory.
type memFileStore struct {
	files map[string][]byte
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: map[string][]byte{}}
}

func (f *memFileStore) Save(userID int64, originalName string, r io.Reader) (*ofximport.StoredFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	name := fmt.Sprintf("%d-%d-%s", userID, len(f.files), originalName)
	f.files[name] = data
	sum := sha256.Sum256(data)
	return &ofximport.StoredFile{Name: name, Size: int64(len(data)), Hash: hex.EncodeToString(sum[:])}, nil
}

func (f *memFileStore) Open(userID int64, storedName string) (io.ReadCloser, error) {
	data, ok := f.files[storedName]
	if !ok {
		return nil, errors.New("file not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *memFileStore) Remove(userID int64, storedName string) error {
	delete(f.files, storedName)
	return nil
}

// memUploadRepo keeps upload metadata in memory.
type memUploadRepo struct {
	uploads map[int64]*upload.UploadedFile
	nextID  int64
}

func newMemUploadRepo() *memUploadRepo {
	return &memUploadRepo{uploads: map[int64]*upload.UploadedFile{}}
}

func (r *memUploadRepo) Create(ctx context.Context, params upload.CreateParams) (*upload.UploadedFile, error) {
	r.nextID++
	up := &upload.UploadedFile{
		ID:               r.nextID,
		UserID:           params.UserID,
		Filename:         params.Filename,
		OriginalFilename: params.OriginalFilename,
		Size:             params.Size,
		Hash:             params.Hash,
		Status:           upload.StatusPending,
		UploadedAt:       time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC),
	}
	r.uploads[up.ID] = up
	return up, nil
}

func (r *memUploadRepo) FindByHash(ctx context.Context, userID int64, hash string) (*upload.UploadedFile, error) {
	for _, up := range r.uploads {
		if up.UserID == userID && up.Hash == hash && up.Status != upload.StatusFailed {
			return up, nil
		}
	}
	return nil, upload.ErrUploadNotFound
}

func (r *memUploadRepo) ListByUserID(ctx context.Context, userID int64) ([]*upload.UploadedFile, error) {
	var out []*upload.UploadedFile
	for _, up := range r.uploads {
		if up.UserID == userID {
			out = append(out, up)
		}
	}
	return out, nil
}

func (r *memUploadRepo) Finalize(ctx context.Context, id int64, stats upload.Stats) error {
	up, ok := r.uploads[id]
	if !ok {
		return upload.ErrUploadNotFound
	}
	up.Status = upload.StatusImported
	up.TransactionCount = stats.TransactionCount
	up.StartDate = stats.StartDate
	up.EndDate = stats.EndDate
	return nil
}

func (r *memUploadRepo) MarkFailed(ctx context.Context, id int64) error {
	up, ok := r.uploads[id]
	if !ok {
		return upload.ErrUploadNotFound
	}
	up.Status = upload.StatusFailed
	return nil
}

// memBatchStore implements ofximport.Store and BatchStore directly,
// without transactional staging; handler tests never exercise rollback.
type memBatchStore struct {
	inserted []*transaction.Transaction
	rules    []category.Rule
	nextID   int64
}

func (s *memBatchStore) InTransaction(ctx context.Context, fn func(tx ofximport.BatchStore) error) error {
	return fn(s)
}

func (s *memBatchStore) TransactionExists(ctx context.Context, userID int64, externalID string) (bool, error) {
	for _, txn := range s.inserted {
		if txn.UserID == userID && txn.ExternalID == externalID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memBatchStore) InsertTransaction(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error) {
	s.nextID++
	txn := &transaction.Transaction{
		ID:          s.nextID,
		UserID:      params.UserID,
		ExternalID:  params.ExternalID,
		Date:        params.Date,
		Amount:      params.Amount,
		Description: params.Description,
	}
	s.inserted = append(s.inserted, txn)
	return txn, nil
}

func (s *memBatchStore) SetTransactionCategory(ctx context.Context, id, categoryID int64) error {
	for _, txn := range s.inserted {
		if txn.ID == id {
			cid := categoryID
			txn.CategoryID = &cid
			return nil
		}
	}
	return transaction.ErrTransactionNotFound
}

func (s *memBatchStore) ListRules(ctx context.Context, userID int64) ([]category.Rule, error) {
	return s.rules, nil
}

func multipartBody(t *testing.T, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := io.WriteString(fw, content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func newUploadHandler(uploads upload.Repository, store ofximport.Store) *UploadHandler {
	svc := ofximport.NewService(newMemFileStore(), uploads, store, zerolog.Nop())
	return NewUploadHandler(svc, uploads, 1<<20)
}

func uploadRequest(t *testing.T, filename, content string) *http.Request {
	t.Helper()
	body, contentType := multipartBody(t, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, int64(1))
	return req.WithContext(ctx)
}

func TestHandleUploads_Import(t *testing.T) {
	uploads := newMemUploadRepo()
	store := &memBatchStore{}
	handler := newUploadHandler(uploads, store)

	rr := httptest.NewRecorder()
	handler.HandleUploads(rr, uploadRequest(t, "extrato.ofx", sampleOFX))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var resp UploadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.Imported != 1 {
		t.Errorf("imported = %d, want 1", resp.Imported)
	}
	if len(store.inserted) != 1 {
		t.Errorf("inserted %d transactions, want 1", len(store.inserted))
	}
}

func TestHandleUploads_DuplicateFile(t *testing.T) {
	uploads := newMemUploadRepo()
	store := &memBatchStore{}
	handler := newUploadHandler(uploads, store)

	rr := httptest.NewRecorder()
	handler.HandleUploads(rr, uploadRequest(t, "extrato.ofx", sampleOFX))
	if rr.Code != http.StatusCreated {
		t.Fatalf("first upload status = %d, want %d", rr.Code, http.StatusCreated)
	}

	rr = httptest.NewRecorder()
	handler.HandleUploads(rr, uploadRequest(t, "copia.ofx", sampleOFX))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d (body %s)", rr.Code, http.StatusConflict, rr.Body.String())
	}

	var resp struct {
		Error      string `json:"error"`
		UploadedAt string `json:"uploadedAt"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if resp.UploadedAt == "" {
		t.Error("expected original upload timestamp in response")
	}
}

func TestHandleUploads_FormatError(t *testing.T) {
	handler := newUploadHandler(newMemUploadRepo(), &memBatchStore{})

	rr := httptest.NewRecorder()
	handler.HandleUploads(rr, uploadRequest(t, "notas.txt", "this is not a statement"))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want %d (body %s)", rr.Code, http.StatusUnprocessableEntity, rr.Body.String())
	}
}

func TestHandleUploads_MissingFile(t *testing.T) {
	handler := newUploadHandler(newMemUploadRepo(), &memBatchStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/uploads", nil)
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, int64(1))
	rr := httptest.NewRecorder()
	handler.HandleUploads(rr, req.WithContext(ctx))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestHandleUploads_List(t *testing.T) {
	uploads := newMemUploadRepo()
	handler := newUploadHandler(uploads, &memBatchStore{})

	rr := httptest.NewRecorder()
	handler.HandleUploads(rr, uploadRequest(t, "extrato.ofx", sampleOFX))
	if rr.Code != http.StatusCreated {
		t.Fatalf("upload status = %d, want %d", rr.Code, http.StatusCreated)
	}

	rr = httptest.NewRecorder()
	handler.HandleUploads(rr, authedRequest(http.MethodGet, "/api/uploads", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var got []*upload.UploadedFile
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d uploads, want 1", len(got))
	}
	if got[0].Status != upload.StatusImported {
		t.Errorf("status = %q, want %q", got[0].Status, upload.StatusImported)
	}
}
