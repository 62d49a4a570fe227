package pgstore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/stigctl/engine/id"
)

func entityBytes(e id.Entity) []byte {
	b := e.Bytes()
	return b[:]
}

func entityFromBytes(raw []byte) (id.Entity, error) {
	if len(raw) != id.Size {
		return id.Entity{}, fmt.Errorf("pgstore: stored entity has %d bytes, want %d", len(raw), id.Size)
	}
	var b [id.Size]byte
	copy(b[:], raw)
	return id.Entity{ID: idFromRaw(id.KindEntity, b)}, nil
}

func invariantBytes(i id.InvariantID) []byte {
	b := i.Bytes()
	return b[:]
}

// idFromRaw rebuilds an id.ID from its raw payload via the public parse
// path: encode then Parse, since id.ID's fields are unexported outside
// package id.
func idFromRaw(kind id.Kind, b [id.Size]byte) id.ID {
	encoded := base64.RawURLEncoding.EncodeToString(b[:])
	parsed, err := id.Parse(encoded, kind)
	if err != nil {
		// The input is exactly Size bytes re-encoded through the same
		// codec that produced it; this cannot fail.
		panic(fmt.Sprintf("pgstore: re-parse stored id: %v", err))
	}
	return parsed
}

// isUniqueViolation reports whether err is a Postgres unique_violation
// (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isForeignKeyViolation reports whether err is a Postgres
// foreign_key_violation (SQLSTATE 23503).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
