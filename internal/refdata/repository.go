// Package refdata mantiene en memoria las listas maestras (clientes,
// productos, palets, cajas) y los pedidos ya enviados, cargados desde la
// hoja a través del gateway. Es la única fuente de verdad para búsquedas.
package refdata

import (
	"context"
	"sort"
	"strings"
	"sync"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/propiter/FormGodoy/internal/models"
)

// Rangos fijos de lectura. Se lee hasta la fila 1000 en lugar de consultar
// la última fila con datos; las filas vacías se filtran al mapear.
const (
	rangeClientes  = "CLIENTES!A2:E1000"
	rangeProductos = "PRODUCTOS!A2:C1000"
	rangePalets    = "PALETS!A2:B1000"
	rangeCajas     = "CAJAS!A2:B1000"
	rangePedidos   = "PEDIDOS!A2:L1000"
)

// Gateway es lo que el repositorio necesita del cliente de sheets.
type Gateway interface {
	GetRange(ctx context.Context, rng string) ([][]any, error)
}

// Repository carga y sirve los datos de referencia. Las listas se
// reemplazan en bloque bajo el lock: un lector nunca observa una carga a
// medias. Una recarga concurrente con una lectura es last-reload-wins.
type Repository struct {
	gw     Gateway
	logger *zap.Logger

	loading *atomic.Bool

	mu         sync.RWMutex
	clients    []models.Client
	products   []models.Product
	palets     []models.Palet
	cajas      []models.Caja
	orders     []models.Order
	categories []string
	lastError  string
}

// NewRepository construye el repositorio sin cargar nada todavía.
func NewRepository(gw Gateway, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.L()
	}
	return &Repository{
		gw:      gw,
		logger:  logger,
		loading: atomic.NewBool(false),
	}
}

// LoadAll lanza las cinco lecturas en paralelo y reemplaza el estado en
// bloque si todas tienen éxito. Si cualquiera falla, la carga entera falla:
// se registra el error y se conservan los datos anteriores (mejor viejos
// que ninguno).
func (r *Repository) LoadAll(ctx context.Context) error {
	r.loading.Store(true)
	defer r.loading.Store(false)

	var (
		wg          sync.WaitGroup
		rawClients  [][]any
		rawProducts [][]any
		rawPalets   [][]any
		rawCajas    [][]any
		rawPedidos  [][]any
	)
	errs := make([]error, 5)

	reads := []struct {
		rng  string
		dest *[][]any
		err  *error
	}{
		{rangeClientes, &rawClients, &errs[0]},
		{rangeProductos, &rawProducts, &errs[1]},
		{rangePalets, &rawPalets, &errs[2]},
		{rangeCajas, &rawCajas, &errs[3]},
		{rangePedidos, &rawPedidos, &errs[4]},
	}

	for _, read := range reads {
		wg.Add(1)
		go func(rng string, dest *[][]any, errOut *error) {
			defer wg.Done()
			rows, err := r.gw.GetRange(ctx, rng)
			if err != nil {
				*errOut = err
				return
			}
			*dest = rows
		}(read.rng, read.dest, read.err)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			r.mu.Lock()
			r.lastError = "Error al cargar los datos. Por favor, intente de nuevo."
			r.mu.Unlock()

			r.logger.Error("carga de datos de referencia fallida", zap.Error(err))
			return err
		}
	}

	clients := mapClients(rawClients)
	products := mapProducts(rawProducts)
	palets := mapPalets(rawPalets)
	cajas := mapCajas(rawCajas)
	orders := mapOrders(rawPedidos, buildMasters(products, palets, cajas), r.logger)
	categories := deriveCategories(products)

	r.mu.Lock()
	r.clients = clients
	r.products = products
	r.palets = palets
	r.cajas = cajas
	r.orders = orders
	r.categories = categories
	r.lastError = ""
	r.mu.Unlock()

	r.logger.Info("datos de referencia cargados",
		zap.Int("clients", len(clients)),
		zap.Int("products", len(products)),
		zap.Int("palets", len(palets)),
		zap.Int("cajas", len(cajas)),
		zap.Int("orders", len(orders)),
	)
	return nil
}

// FetchOrders relee PEDIDOS sin tocar el estado cacheado. El flujo de
// actualización busca siempre sobre datos frescos: el pedido puede haber
// cambiado de estado desde la última carga completa.
func (r *Repository) FetchOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := r.gw.GetRange(ctx, rangePedidos)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	m := buildMasters(r.products, r.palets, r.cajas)
	r.mu.RUnlock()

	return mapOrders(rows, m, r.logger), nil
}

// FindClientByCIF busca por CIF, insensible a mayúsculas y espacios.
func (r *Repository) FindClientByCIF(cif string) (models.Client, bool) {
	query := models.NormalizeCIF(cif)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		if models.NormalizeCIF(c.CIF) == query {
			return c, true
		}
	}
	return models.Client{}, false
}

// FindOrderByReceptionNumber busca por nº de recepción, insensible a
// mayúsculas y espacios, sobre la última carga completa.
func (r *Repository) FindOrderByReceptionNumber(number string) (models.Order, bool) {
	query := strings.ToUpper(strings.TrimSpace(number))
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if strings.ToUpper(strings.TrimSpace(o.ReceptionNumber)) == query {
			return o, true
		}
	}
	return models.Order{}, false
}

// Loading indica si hay una carga en curso. Los llamantes deben usarlo como
// puerta: el diseño no cancela cargas solapadas.
func (r *Repository) Loading() bool {
	return r.loading.Load()
}

// LastError devuelve el mensaje de la última carga fallida, o "".
func (r *Repository) LastError() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastError
}

func (r *Repository) Clients() []models.Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Client(nil), r.clients...)
}

func (r *Repository) Products() []models.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Product(nil), r.products...)
}

func (r *Repository) Palets() []models.Palet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Palet(nil), r.palets...)
}

func (r *Repository) Cajas() []models.Caja {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Caja(nil), r.cajas...)
}

func (r *Repository) Orders() []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]models.Order(nil), r.orders...)
}

// Categories devuelve el conjunto de categorías no vacías, deduplicado y
// ordenado alfabéticamente, derivado en la última carga.
func (r *Repository) Categories() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.categories...)
}

func deriveCategories(products []models.Product) []string {
	seen := make(map[string]struct{})
	categories := make([]string, 0)
	for _, p := range products {
		cat := strings.TrimSpace(p.Category)
		if cat == "" {
			continue
		}
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	return categories
}
