package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound       = errors.New("recurso no encontrado")
	ErrInvalidInput   = errors.New("entrada inválida")
	ErrDuplicate      = errors.New("recurso duplicado")
	ErrUnauthorized   = errors.New("no autorizado")
	ErrForbidden      = errors.New("acceso denegado")
	ErrUserNotFound   = errors.New("usuario no encontrado")
	ErrEmailExists    = errors.New("el email ya está registrado")

	// ErrConfigurationMissing: no existe setting activo para la tripleta
	// (company, environment, branch). Condición fatal de cara al operador;
	// no se reintenta porque una configuración ausente no se resuelve sola.
	ErrConfigurationMissing = errors.New("no existe configuración eTims activa")

	// ErrSequenceUnavailable: el setting activo no tiene un contador de ventas
	// utilizable (ausente o negativo). Una venta nunca se envía sin número.
	ErrSequenceUnavailable = errors.New("número de secuencia no disponible")

	// ErrRouteNotFound: la operación lógica no está registrada en el registro
	// de rutas. Defecto de setup; el caller no debe adivinar URLs.
	ErrRouteNotFound = errors.New("ruta eTims no registrada")

	// ErrUnknownTaxCategory: el desglose de impuestos de una línea no trae
	// ninguna de las etiquetas VAT reconocidas.
	ErrUnknownTaxCategory = errors.New("categoría de impuesto no reconocida")
)
