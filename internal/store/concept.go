package store

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/ayusman/mudra/internal/embedding"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// Concept represents a stored reference embedding for one sign concept
// in one language. The pair (ID, Language) is unique.
type Concept struct {
	ID        string
	Language  string
	Name      string
	Vector    embedding.Vector
	Samples   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConceptRepository provides CRUD operations for concepts.
type ConceptRepository struct {
	db *sql.DB
}

// Concepts returns the concept repository for this store.
func (s *Store) Concepts() *ConceptRepository {
	return &ConceptRepository{db: s.db}
}

// Create inserts a new concept into the database.
func (r *ConceptRepository) Create(c *Concept) error {
	if len(c.Vector) == 0 {
		return errors.New("concept has no embedding")
	}

	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO concepts (id, language, name, dim, embedding, samples, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Language, c.Name, len(c.Vector), encodeVector(c.Vector), c.Samples, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// Upsert inserts a concept, or replaces its name, embedding and sample
// count if a concept with the same ID and language already exists.
func (r *ConceptRepository) Upsert(c *Concept) error {
	if len(c.Vector) == 0 {
		return errors.New("concept has no embedding")
	}

	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	_, err := r.db.Exec(
		`INSERT INTO concepts (id, language, name, dim, embedding, samples, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id, language) DO UPDATE SET
			name = excluded.name,
			dim = excluded.dim,
			embedding = excluded.embedding,
			samples = excluded.samples,
			updated_at = excluded.updated_at`,
		c.ID, c.Language, c.Name, len(c.Vector), encodeVector(c.Vector), c.Samples, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return err
	}

	return nil
}

// GetByID retrieves a concept by its ID and language.
func (r *ConceptRepository) GetByID(id, language string) (*Concept, error) {
	c := &Concept{}
	var dim int
	var blob []byte

	err := r.db.QueryRow(
		`SELECT id, language, name, dim, embedding, samples, created_at, updated_at
		 FROM concepts WHERE id = ? AND language = ?`,
		id, language,
	).Scan(&c.ID, &c.Language, &c.Name, &dim, &blob, &c.Samples, &c.CreatedAt, &c.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	c.Vector, err = decodeVector(dim, blob)
	if err != nil {
		return nil, fmt.Errorf("concept %s/%s: %w", c.ID, c.Language, err)
	}

	return c, nil
}

// List retrieves concepts for one language, or all concepts when
// language is empty.
func (r *ConceptRepository) List(language string) ([]*Concept, error) {
	query := `SELECT id, language, name, dim, embedding, samples, created_at, updated_at
		 FROM concepts ORDER BY language, name`
	args := []any{}
	if language != "" {
		query = `SELECT id, language, name, dim, embedding, samples, created_at, updated_at
		 FROM concepts WHERE language = ? ORDER BY name`
		args = append(args, language)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var concepts []*Concept
	for rows.Next() {
		c := &Concept{}
		var dim int
		var blob []byte

		err := rows.Scan(&c.ID, &c.Language, &c.Name, &dim, &blob, &c.Samples, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, err
		}

		c.Vector, err = decodeVector(dim, blob)
		if err != nil {
			return nil, fmt.Errorf("concept %s/%s: %w", c.ID, c.Language, err)
		}

		concepts = append(concepts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return concepts, nil
}

// Delete removes a concept from the database by its ID and language.
func (r *ConceptRepository) Delete(id, language string) error {
	result, err := r.db.Exec(`DELETE FROM concepts WHERE id = ? AND language = ?`, id, language)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the number of stored concepts across all languages.
func (r *ConceptRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM concepts`).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// encodeVector packs an embedding as little-endian float64 values.
func encodeVector(vec embedding.Vector) []byte {
	blob := make([]byte, 8*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint64(blob[8*i:], math.Float64bits(v))
	}
	return blob
}

// decodeVector unpacks a little-endian float64 blob of the given length.
func decodeVector(dim int, blob []byte) (embedding.Vector, error) {
	if dim < 0 || len(blob) != 8*dim {
		return nil, fmt.Errorf("embedding blob is %d bytes, want %d for %d dimensions", len(blob), 8*dim, dim)
	}

	vec := make(embedding.Vector, dim)
	for i := range vec {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[8*i:]))
	}
	return vec, nil
}
