package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/contfrac/internal/tree"
)

// CreateBlob allocates an empty blob and returns its id.
func (t *Tx) CreateBlob(ctx context.Context) (string, error) {
	id := t.ids.Generate()
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO blobs (id, data)
		VALUES (?, x'')
	`, id)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	return id, nil
}

// OpenRead returns the blob's bytes as a stream.
// Returns tree.ErrNotFound if the blob does not exist.
func (t *Tx) OpenRead(ctx context.Context, id string) (io.ReadCloser, error) {
	var data []byte
	err := t.tx.QueryRowContext(ctx, `
		SELECT data FROM blobs WHERE id = ?
	`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("open blob %s: %w", id, tree.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", id, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// OpenWrite returns a writer that replaces the blob's bytes on Close.
func (t *Tx) OpenWrite(ctx context.Context, id string) (io.WriteCloser, error) {
	var exists int
	err := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM blobs WHERE id = ?
	`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", id, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("open blob %s: %w", id, tree.ErrNotFound)
	}
	return &blobWriter{ctx: ctx, tx: t.tx, id: id}, nil
}

// DeleteBlob releases a blob. Deleting a missing blob is not an error.
func (t *Tx) DeleteBlob(ctx context.Context, id string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM blobs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete blob %s: %w", id, err)
	}
	return nil
}

// blobWriter buffers writes and stores them in one UPDATE on Close.
type blobWriter struct {
	ctx    context.Context
	tx     *sql.Tx
	id     string
	buf    bytes.Buffer
	closed bool
}

func (w *blobWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("write blob %s: closed", w.id)
	}
	return w.buf.Write(p)
}

func (w *blobWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.tx.ExecContext(w.ctx, `
		UPDATE blobs SET data = ? WHERE id = ?
	`, w.buf.Bytes(), w.id)
	if err != nil {
		return fmt.Errorf("write blob %s: %w", w.id, err)
	}
	return nil
}
