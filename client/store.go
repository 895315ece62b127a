package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const (
	basketKey = "basket"
	tokenKey  = "token"
)

// Product is the catalog summary held in the volatile list. Count is a
// transient UI scratch field, reset to zero whenever the list is
// fetched; the selected quantity lives in the basket instead.
type Product struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Composition string `json:"composition"`
	Price       int    `json:"price"`
	ImgURL      string `json:"img_url"`
	Count       int    `json:"count"`
}

type BasketItem struct {
	ID    uint `json:"id"`
	Count int  `json:"count"`
}

type FormFile struct {
	Name   string
	Reader io.Reader
}

type ProductForm struct {
	ID            uint
	Name          string
	Description   string
	Composition   string
	Price         int
	Proteins      int
	Fats          int
	Carbohydrates int
	// Nil on update means "keep the existing image".
	Image *FormFile
}

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// Local persists the basket across restarts; Session holds the
	// bearer token for the lifetime of the session. Either may be nil,
	// which falls back to a volatile in-memory storage.
	Local   Storage
	Session Storage
}

// ProductStore caches the product list and keeps a durable basket,
// reconciling with the backend on every mutation. The token is read
// once at construction and not refreshed afterwards.
type ProductStore struct {
	mu     sync.Mutex
	client *http.Client
	base   string
	token  string
	local  Storage
	list   []Product
	basket map[string]BasketItem
}

func New(cfg Config) *ProductStore {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	local := cfg.Local
	if local == nil {
		local = NewMemoryStorage()
	}
	session := cfg.Session
	if session == nil {
		session = NewMemoryStorage()
	}

	token := ""
	if v, ok := session.GetItem(tokenKey); ok && v != "" {
		token = "Bearer " + v
	}

	// A missing or unparseable basket starts over empty.
	basket := map[string]BasketItem{}
	if raw, ok := local.GetItem(basketKey); ok {
		if err := json.Unmarshal([]byte(raw), &basket); err != nil {
			basket = map[string]BasketItem{}
		}
	}

	return &ProductStore{
		client: httpClient,
		base:   cfg.BaseURL,
		token:  token,
		local:  local,
		basket: basket,
	}
}

// Create submits the form to the creation endpoint and refreshes the
// list on success. Every failure collapses into false.
func (s *ProductStore) Create(ctx context.Context, form ProductForm) bool {
	body, contentType, err := encodeForm(form)
	if err != nil {
		return false
	}
	if !s.send(ctx, http.MethodPost, "/products/store", contentType, body) {
		return false
	}
	if err := s.GetAll(ctx); err != nil {
		log.Printf("refresh after create: %v", err)
	}
	return true
}

// Update submits the form keyed by the product id. The image field is
// omitted when no new image was supplied.
func (s *ProductStore) Update(ctx context.Context, form ProductForm) bool {
	body, contentType, err := encodeForm(form)
	if err != nil {
		return false
	}
	path := fmt.Sprintf("/products/update/%d", form.ID)
	if !s.send(ctx, http.MethodPost, path, contentType, body) {
		return false
	}
	if err := s.GetAll(ctx); err != nil {
		log.Printf("refresh after update: %v", err)
	}
	return true
}

func (s *ProductStore) DeleteFromDB(ctx context.Context, productID uint) bool {
	path := fmt.Sprintf("/products/destroy/%d", productID)
	if !s.send(ctx, http.MethodDelete, path, "", nil) {
		return false
	}
	if err := s.GetAll(ctx); err != nil {
		log.Printf("refresh after delete: %v", err)
	}
	return true
}

// GetAll replaces the cached list with the backend's, zeroing every
// transient count. Concurrent calls are not deduplicated; the last one
// to finish wins.
func (s *ProductStore) GetAll(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+"/products/index", nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d fetching products", resp.StatusCode)
	}

	var envelope struct {
		Data []Product `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return err
	}
	for i := range envelope.Data {
		envelope.Data[i].Count = 0
	}

	s.mu.Lock()
	s.list = envelope.Data
	s.mu.Unlock()
	return nil
}

// AddToBasket adjusts the basket entry for id by one unit. "+" means
// increment, anything else decrements; an entry never survives at a
// count of zero or below. Every call persists the whole basket.
func (s *ProductStore) AddToBasket(id uint, direction string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := basketKeyFor(id)
	item, ok := s.basket[key]
	if !ok {
		item = BasketItem{ID: id}
	}

	if direction == "+" {
		item.Count++
		s.basket[key] = item
	} else {
		item.Count--
		if item.Count <= 0 {
			delete(s.basket, key)
		} else {
			s.basket[key] = item
		}
	}

	s.persistLocked()
}

// RemoveByID drops the basket entry regardless of its count.
func (s *ProductStore) RemoveByID(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.basket, basketKeyFor(id))
	s.persistLocked()
}

func (s *ProductStore) ProductByID(id uint) (Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.list {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

func (s *ProductStore) ProductInBasketByID(id uint) (BasketItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.basket[basketKeyFor(id)]
	return item, ok
}

// List returns a copy of the cached product list.
func (s *ProductStore) List() []Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Product, len(s.list))
	copy(out, s.list)
	return out
}

// Basket returns a copy of the basket mapping.
func (s *ProductStore) Basket() map[string]BasketItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]BasketItem, len(s.basket))
	for k, v := range s.basket {
		out[k] = v
	}
	return out
}

func (s *ProductStore) persistLocked() {
	raw, err := json.Marshal(s.basket)
	if err != nil {
		log.Printf("serialize basket: %v", err)
		return
	}
	if err := s.local.SetItem(basketKey, string(raw)); err != nil {
		log.Printf("persist basket: %v", err)
	}
}

func (s *ProductStore) send(ctx context.Context, method, path, contentType string, body io.Reader) bool {
	req, err := http.NewRequestWithContext(ctx, method, s.base+path, body)
	if err != nil {
		return false
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.token != "" {
		req.Header.Set("Authorization", s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

func encodeForm(form ProductForm) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"name":          form.Name,
		"description":   form.Description,
		"composition":   form.Composition,
		"price":         strconv.Itoa(form.Price),
		"proteins":      strconv.Itoa(form.Proteins),
		"fats":          strconv.Itoa(form.Fats),
		"carbohydrates": strconv.Itoa(form.Carbohydrates),
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", err
		}
	}

	if form.Image != nil {
		part, err := w.CreateFormFile("image", form.Image.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, form.Image.Reader); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func basketKeyFor(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
