package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")

	// ErrInvalidState indica una transición ilegal: reactivar un rango agotado
	// o vencido, anular una factura ya anulada, etc. Nunca se ignora en silencio.
	ErrInvalidState = errors.New("transición de estado no permitida")

	// ErrNoAuthorization indica que no existe ningún rango CAI utilizable para el
	// tipo de documento solicitado. Requiere acción administrativa (registrar un CAI).
	ErrNoAuthorization = errors.New("no hay autorización CAI disponible")

	// ErrRangeExhausted indica que el rango CAI alcanzó su correlativo final.
	// Se distingue de ErrNoAuthorization para que el caller pueda decidir
	// reintentar contra otro rango registrado.
	ErrRangeExhausted = errors.New("rango CAI agotado")
)
