package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log"
	"net/http"
	"path"
	"regexp"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"kitrender/kit"
	"kitrender/store"
)

// maxBodySize bounds request bodies; logos arrive inline as data URLs.
const maxBodySize = 8 << 20

// hashPattern restricts render hashes to safe object key characters.
var hashPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Uploader stores a rendered preview under key.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte) error
}

type s3Uploader struct {
	client *s3.S3
	bucket string
}

func (u *s3Uploader) Upload(ctx context.Context, key string, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	size := int64(len(data))
	_, err := u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(size),
		ContentType:   aws.String("image/png"),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	log.Printf("Uploaded %s to S3 (%s)", key, humanize.Bytes(uint64(size)))
	return nil
}

// Holds shared dependencies like config, uploader, kit library and projects.
type Server struct {
	config   *Config
	uploader Uploader
	catalog  kit.Catalog
	library  *kit.Library
	applier  *kit.Applier
	renderer *kit.Renderer
	limiter  *rate.Limiter
	projects store.Repository
}

func NewServer(cfg *Config, uploader Uploader, assets kit.AssetSource, catalog kit.Catalog, projects store.Repository) *Server {
	limit := rate.Inf
	if cfg.RenderInterval > 0 {
		limit = rate.Every(cfg.RenderInterval)
	}
	return &Server{
		config:   cfg,
		uploader: uploader,
		catalog:  catalog,
		library:  kit.NewLibrary(assets),
		applier:  kit.NewApplier(kit.NewPatternLoader(assets, catalog), kit.DefaultSurfaces),
		renderer: kit.NewRenderer(cfg.RenderSize),
		limiter:  rate.NewLimiter(limit, max(cfg.RenderBurst, 1)),
		projects: projects,
	}
}

// Routes returns the HTTP handler of the server.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ping", pingHandler)
	mux.HandleFunc("/render", s.handleRender)
	mux.HandleFunc("/patterns", s.handlePatterns)
	s.projectRoutes(mux)
	return mux
}

// pingHandler handles GET /ping
func pingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) authorized(r *http.Request) bool {
	return s.config.PostKey == "" || r.Header.Get("Aeo-Access-Key") == s.config.PostKey
}

// RenderEvent is the body of POST /render.
type RenderEvent struct {
	RenderType    string            `json:"RenderType"`
	Hash          string            `json:"Hash"`
	Customization kit.Customization `json:"Customization"`
	Views         []string          `json:"Views"`
	ProjectID     string            `json:"ProjectID,omitempty"`
}

// RenderResult is the body returned by POST /render.
type RenderResult struct {
	Hash     string            `json:"hash"`
	Model    string            `json:"model"`
	Status   string            `json:"status"`
	Previews map[string]string `json:"previews"`
	Errors   map[string]string `json:"errors,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var e RenderEvent
	if err := json.Unmarshal(body, &e); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	log.Printf("Received RenderType: %s", e.RenderType)
	if e.RenderType != "" && e.RenderType != "design" {
		http.Error(w, "Unknown RenderType", http.StatusBadRequest)
		return
	}
	if !hashPattern.MatchString(e.Hash) {
		http.Error(w, "Invalid Hash", http.StatusBadRequest)
		return
	}
	c := e.Customization.Normalize()
	if err := c.Validate(s.catalog); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	views, err := parseViews(e.Views)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Renders queue for a token; give up if none frees before the render timeout.
	waitCtx, cancel := context.WithTimeout(r.Context(), RenderTimeout)
	err = s.limiter.Wait(waitCtx)
	cancel()
	if err != nil {
		http.Error(w, "Too many renders", http.StatusTooManyRequests)
		return
	}

	res, err := s.renderDesign(r.Context(), e.Hash, c, views)
	if err != nil {
		log.Printf("Design render %s failed: %v", e.Hash, err)
		http.Error(w, "Render failed", http.StatusGatewayTimeout)
		return
	}
	if e.ProjectID != "" && len(res.Previews) > 0 {
		preview := res.Previews[string(views[0])]
		if preview == "" {
			for _, v := range res.Previews {
				preview = v
				break
			}
		}
		if _, err := s.projects.Update(r.Context(), e.ProjectID, store.Update{PreviewURL: &preview}); err != nil {
			log.Printf("Failed to attach preview to project %s: %v", e.ProjectID, err)
		}
	}
	status := http.StatusOK
	if len(res.Previews) == 0 {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, res)
}

func parseViews(raw []string) ([]kit.View, error) {
	if len(raw) == 0 {
		return []kit.View{kit.ViewFull}, nil
	}
	seen := make(map[kit.View]bool)
	views := make([]kit.View, 0, len(raw))
	for _, s := range raw {
		v, err := kit.ParseView(s)
		if err != nil {
			return nil, err
		}
		if !seen[v] {
			seen[v] = true
			views = append(views, v)
		}
	}
	return views, nil
}

// renderDesign loads the kit, applies the customization, and renders and
// uploads every view in parallel. Per view failures are reported in the
// result; an error is returned only if the pattern never settled.
func (s *Server) renderDesign(ctx context.Context, hash string, c kit.Customization, views []kit.View) (*RenderResult, error) {
	start := time.Now()
	provider := kit.NewProvider(s.library, func(modelType string, status kit.Status) {
		log.Printf("Kit %s: %s", modelType, status)
	})
	g := provider.Select(ctx, c.ModelType)

	waitCtx, cancel := context.WithTimeout(ctx, PatternTimeout)
	defer cancel()
	app := s.applier.Apply(waitCtx, g, c.Options())
	if err := app.Wait(waitCtx); err != nil {
		return nil, fmt.Errorf("pattern %q did not settle: %w", c.Pattern, err)
	}

	res := &RenderResult{
		Hash:     hash,
		Model:    g.ModelType(),
		Status:   g.Status().String(),
		Previews: make(map[string]string),
	}
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, v := range views {
		wg.Add(1)
		go func(v kit.View) {
			defer wg.Done()
			key := path.Join("thumbnails", fmt.Sprintf("%s_%s.png", hash, v))
			err := s.renderAndUpload(ctx, g, v, key)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("View %s of %s failed: %v", v, hash, err)
				if res.Errors == nil {
					res.Errors = make(map[string]string)
				}
				res.Errors[string(v)] = err.Error()
				return
			}
			res.Previews[string(v)] = s.config.CDNURL + "/" + key
		}(v)
	}
	wg.Wait()
	log.Printf("Completed design render for %s in %v", hash, time.Since(start))
	return res, nil
}

func (s *Server) renderAndUpload(ctx context.Context, g kit.Garment, v kit.View, key string) error {
	buf, err := s.runRenderWithTimeout(g, v)
	if err != nil {
		return err
	}
	return s.uploader.Upload(ctx, key, buf)
}

func (s *Server) runRenderWithTimeout(g kit.Garment, v kit.View) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), RenderTimeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{nil, fmt.Errorf("panic in renderer: %v", r)}
			}
		}()

		img, err := s.renderer.Render(g, v)
		if err != nil {
			resChan <- result{nil, err}
			return
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			resChan <- result{nil, err}
			return
		}
		resChan <- result{data: buf.Bytes()}
	}()

	select {
	case <-ctx.Done():
		return nil, errors.New("render timeout")
	case res := <-resChan:
		return res.data, res.err
	}
}

// handlePatterns lists the known pattern names.
func (s *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"patterns": s.catalog.Names()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
