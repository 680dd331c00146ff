package ports

import (
	"context"
	"errors"
)

// ErrStoreUnavailable marca una falla del Record Store. Es el único error
// que aborta un run completo: sin store no se persiste nada (all-or-nothing).
var ErrStoreUnavailable = errors.New("record store unavailable")

// RecordStore es la única dependencia de persistencia del pipeline.
// Mapea claves a documentos JSON opacos, last-write-wins, sin transacciones.
// El pipeline no conoce el layout físico (SQLite, archivos, lo que sea).
type RecordStore interface {
	// Get deserializa el documento de la clave en out.
	// Devuelve found=false sin error si la clave no existe.
	Get(ctx context.Context, key string, out any) (found bool, err error)

	// Put serializa doc y lo escribe bajo la clave, pisando lo anterior.
	Put(ctx context.Context, key string, doc any) error

	// List devuelve las claves existentes con el prefijo dado, ordenadas.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close cierra el store limpiamente.
	Close() error
}
