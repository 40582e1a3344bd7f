package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/safar/collectibles-store/internal/cart"
	"github.com/safar/collectibles-store/internal/checkout"
	"github.com/safar/collectibles-store/internal/config"
	"github.com/safar/collectibles-store/internal/database"
	"github.com/safar/collectibles-store/internal/events"
	"github.com/safar/collectibles-store/internal/models"
	"github.com/safar/collectibles-store/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	log.Printf("Connected to database successfully")

	carts := cart.NewManager(cfg.Cart.DataDir)
	assembler := checkout.NewAssembler(store.NewOrders(db))

	var publisher *events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err = events.NewPublisher(cfg.Kafka)
		if err != nil {
			log.Fatalf("Connect to kafka: %v", err)
		}
		defer publisher.Close()
		log.Printf("Publishing order events to %s", cfg.Kafka.Topic)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/products", handleProducts(db))
	mux.HandleFunc("/products/", handleProductByID(db))
	mux.HandleFunc("/cart", handleCart(carts))
	mux.HandleFunc("/cart/items", handleCartItems(carts, db))
	mux.HandleFunc("/cart/items/", handleCartItemByID(carts))
	mux.HandleFunc("/checkout", handleCheckout(carts, assembler, publisher, cfg.Checkout.ShippingFee))
	mux.HandleFunc("/orders", handleOrders(db))
	mux.HandleFunc("/orders/", handleOrderByID(db))
	mux.HandleFunc("/profiles", handleProfiles(db))

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// userID reads the authenticated subject forwarded by the auth layer.
// Verifying the token itself is the auth collaborator's job.
func userID(r *http.Request) string {
	return r.Header.Get("X-User-ID")
}

func userCart(carts *cart.Manager, w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusUnauthorized, "Missing X-User-ID header")
		return nil, false
	}

	c, err := carts.Get(uid)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return c, true
}

const maxPage = 10000

// parsePagination clamps caller-supplied paging so the derived OFFSET
// stays within range no matter what the query string says.
func parsePagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 || page > maxPage {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}

func handleProducts(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		page, pageSize := parsePagination(r)

		filter := store.ProductFilter{
			Category:    r.URL.Query().Get("category"),
			LimitedOnly: r.URL.Query().Get("limited") == "true",
		}

		result, err := store.ListProducts(r.Context(), db, filter, page, pageSize)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, result)
	}
}

func handleProductByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idStr := r.URL.Path[len("/products/"):]
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}

		product, err := store.GetProduct(r.Context(), db, id)
		if err != nil {
			respondError(w, http.StatusNotFound, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, product)
	}
}

func handleCart(carts *cart.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := userCart(carts, w, r)
		if !ok {
			return
		}

		switch r.Method {
		case http.MethodGet:
			respondJSON(w, http.StatusOK, map[string]interface{}{
				"items": c.Items(),
				"total": c.Total(),
			})

		case http.MethodDelete:
			if err := c.Clear(); err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondJSON(w, http.StatusOK, map[string]interface{}{"items": []cart.Line{}, "total": decimal.Zero})

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	}
}

func handleCartItems(carts *cart.Manager, db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		c, ok := userCart(carts, w, r)
		if !ok {
			return
		}

		var req struct {
			ProductID int64 `json:"product_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		product, err := store.GetProduct(r.Context(), db, req.ProductID)
		if err != nil {
			if errors.Is(err, database.ErrProductNotFound) {
				respondError(w, http.StatusNotFound, err.Error())
			} else {
				respondError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		if err := c.Add(*product); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"items": c.Items(),
			"total": c.Total(),
		})
	}
}

func handleCartItemByID(carts *cart.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, ok := userCart(carts, w, r)
		if !ok {
			return
		}

		idStr := r.URL.Path[len("/cart/items/"):]
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid product ID")
			return
		}

		switch r.Method {
		case http.MethodPatch:
			var req struct {
				Quantity int `json:"quantity"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				respondError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
			if err := c.UpdateQuantity(id, req.Quantity); err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}

		case http.MethodDelete:
			if err := c.Remove(id); err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}

		default:
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		respondJSON(w, http.StatusOK, map[string]interface{}{
			"items": c.Items(),
			"total": c.Total(),
		})
	}
}

func handleCheckout(carts *cart.Manager, assembler *checkout.Assembler, publisher *events.Publisher, shippingFee decimal.Decimal) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		c, ok := userCart(carts, w, r)
		if !ok {
			return
		}

		var req struct {
			Shipping      models.ShippingInfo     `json:"shipping"`
			PaymentMethod string                  `json:"payment_method"`
			Payment       checkout.PaymentDetails `json:"payment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		items, subtotal := c.Snapshot()
		total := subtotal.Add(shippingFee)
		orderID, err := assembler.CreateOrder(r.Context(), checkout.Request{
			UserID:        userID(r),
			Items:         items,
			Total:         total,
			Shipping:      req.Shipping,
			PaymentMethod: req.PaymentMethod,
			Payment:       req.Payment,
		})
		if err != nil {
			// The cart stays intact on any failure so the user can resubmit.
			if errors.Is(err, checkout.ErrInvalidRequest) {
				respondError(w, http.StatusBadRequest, err.Error())
			} else {
				respondError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		if err := c.Clear(); err != nil {
			log.Printf("Clear cart after order %s: %v", orderID, err)
		}

		if publisher != nil {
			event := events.OrderPlaced{
				OrderID:       orderID,
				UserID:        userID(r),
				Total:         total,
				ItemCount:     len(items),
				PaymentMethod: req.PaymentMethod,
				PlacedAt:      time.Now().UTC(),
			}
			if err := publisher.PublishOrderPlaced(r.Context(), event); err != nil {
				log.Printf("Publish order placed event for %s: %v", orderID, err)
			}
		}

		respondJSON(w, http.StatusCreated, map[string]string{"order_id": orderID})
	}
}

func handleOrders(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		uid := userID(r)
		if uid == "" {
			respondError(w, http.StatusUnauthorized, "Missing X-User-ID header")
			return
		}

		// Paged when the caller asks for it, full history otherwise.
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			limit, err := strconv.Atoi(limitStr)
			if err != nil || limit < 1 || limit > 100 {
				limit = 20
			}

			result, err := store.ListOrdersCursor(r.Context(), db, uid, r.URL.Query().Get("cursor"), limit)
			if err != nil {
				respondError(w, http.StatusInternalServerError, err.Error())
				return
			}
			respondJSON(w, http.StatusOK, result)
			return
		}

		orders, err := store.ListOrdersForUser(r.Context(), db, uid)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, orders)
	}
}

func handleOrderByID(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rest := r.URL.Path[len("/orders/"):]

		if r.Method == http.MethodPatch && strings.HasSuffix(rest, "/status") {
			handleOrderStatus(db, w, r, strings.TrimSuffix(rest, "/status"))
			return
		}

		uid := userID(r)
		if uid == "" {
			respondError(w, http.StatusUnauthorized, "Missing X-User-ID header")
			return
		}

		order, err := store.GetOrderForUser(r.Context(), db, rest, uid)
		if err != nil {
			if errors.Is(err, database.ErrOrderNotFound) {
				respondError(w, http.StatusNotFound, err.Error())
			} else {
				respondError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		respondJSON(w, http.StatusOK, order)
	}
}

func handleOrderStatus(db *sql.DB, w http.ResponseWriter, r *http.Request, id string) {
	var req struct {
		Status          string  `json:"status"`
		TrackingNumber  *string `json:"tracking_number"`
		TrackingCourier *string `json:"tracking_courier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	err := store.UpdateOrderStatus(r.Context(), db, id, req.Status, req.TrackingNumber, req.TrackingCourier)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, err.Error())
		} else {
			respondError(w, http.StatusBadRequest, err.Error())
		}
		return
	}

	order, err := store.GetOrder(r.Context(), db, id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func handleProfiles(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		uid := userID(r)
		if uid == "" {
			respondError(w, http.StatusUnauthorized, "Missing X-User-ID header")
			return
		}

		var req struct {
			FullName string `json:"full_name"`
			Email    string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		profile, err := store.GetOrCreateProfile(r.Context(), db, uid, req.FullName, req.Email)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondJSON(w, http.StatusOK, profile)
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
