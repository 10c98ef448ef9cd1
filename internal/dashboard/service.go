package dashboard

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/cwj5/spendlens/internal/config"
	"github.com/cwj5/spendlens/internal/statement"
)

// Service handles dashboard operations over the currently loaded statement.
type Service struct {
	settings *config.Settings
	log      zerolog.Logger

	mu       sync.RWMutex
	snapshot *Snapshot
}

// Snapshot holds the normalized records for one uploaded file. A new upload
// builds a fresh snapshot and swaps it in whole; the old one is never
// mutated, so readers see either the previous batch or the new one.
type Snapshot struct {
	Filename     string
	UploadedAt   time.Time
	BatchID      string
	Transactions []statement.Transaction
	Dropped      []statement.DroppedRow
}

// NewService creates a new dashboard service.
func NewService(settings *config.Settings, log zerolog.Logger) *Service {
	return &Service{
		settings: settings,
		log:      log,
	}
}

// LoadCSV normalizes raw CSV text and replaces the current snapshot.
func (s *Service) LoadCSV(filename, raw string) (*Snapshot, error) {
	result, err := statement.Normalize(raw)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		Filename:     filename,
		UploadedAt:   time.Now(),
		BatchID:      result.BatchID,
		Transactions: result.Transactions,
		Dropped:      result.Dropped,
	}

	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()

	s.log.Info().
		Str("file", filename).
		Str("batch", snapshot.BatchID).
		Int("transactions", len(snapshot.Transactions)).
		Int("dropped", len(snapshot.Dropped)).
		Msg("statement loaded")

	return snapshot, nil
}

// getSnapshot safely returns the current snapshot.
func (s *Service) getSnapshot() (*Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, false
	}
	return s.snapshot, true
}

// HandleUpload accepts a multipart CSV file and replaces the loaded batch.
func (s *Service) HandleUpload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if max := s.settings.MaxUploadBytes(); file.Size > max {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds %d byte limit", max),
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, err := s.LoadCSV(file.Filename, string(raw))
	if err != nil {
		var malformed *statement.MalformedInputError
		if errors.As(err, &malformed) {
			c.JSON(http.StatusBadRequest, gin.H{"error": malformed.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batchId":      snapshot.BatchID,
		"transactions": len(snapshot.Transactions),
		"dropped":      len(snapshot.Dropped),
	})
}

// HandleTransactions returns the filtered, sorted, paginated listing.
func (s *Service) HandleTransactions(c *gin.Context) {
	snapshot, ok := s.getSnapshot()
	if !ok {
		c.JSON(http.StatusAccepted, gin.H{"message": "no statement loaded", "needsUpload": true})
		return
	}

	filtered := Filter(snapshot.Transactions, filterFromQuery(c))
	sorted := SortTransactions(filtered,
		SortKey(c.DefaultQuery("sortKey", string(SortByDate))),
		SortDirection(c.DefaultQuery("sortDir", string(SortDesc))))

	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", s.settings.DefaultPageSize())
	start := (page - 1) * pageSize
	if start > len(sorted) {
		start = len(sorted)
	}
	end := start + pageSize
	if end > len(sorted) {
		end = len(sorted)
	}

	c.JSON(http.StatusOK, gin.H{
		"transactions": sorted[start:end],
		"total":        len(sorted),
		"page":         page,
		"pageSize":     pageSize,
	})
}

// HandleSummary returns the headline numbers for the loaded batch.
func (s *Service) HandleSummary(c *gin.Context) {
	snapshot, ok := s.getSnapshot()
	if !ok {
		c.JSON(http.StatusAccepted, gin.H{"message": "no statement loaded", "needsUpload": true})
		return
	}

	filtered := Filter(snapshot.Transactions, filterFromQuery(c))
	c.JSON(http.StatusOK, gin.H{
		"totalSpend":   TotalSpend(filtered),
		"transactions": len(filtered),
		"dropped":      len(snapshot.Dropped),
		"batchId":      snapshot.BatchID,
		"uploadedAt":   snapshot.UploadedAt,
		"filename":     snapshot.Filename,
	})
}

// HandleCategories returns spend per base category for the chart view.
func (s *Service) HandleCategories(c *gin.Context) {
	snapshot, ok := s.getSnapshot()
	if !ok {
		c.JSON(http.StatusAccepted, gin.H{"message": "no statement loaded", "needsUpload": true})
		return
	}
	c.JSON(http.StatusOK, GroupByCategory(Filter(snapshot.Transactions, filterFromQuery(c))))
}

// HandleDailyTotals returns spend per calendar day for the chart view.
func (s *Service) HandleDailyTotals(c *gin.Context) {
	snapshot, ok := s.getSnapshot()
	if !ok {
		c.JSON(http.StatusAccepted, gin.H{"message": "no statement loaded", "needsUpload": true})
		return
	}
	c.JSON(http.StatusOK, DailyTotals(Filter(snapshot.Transactions, filterFromQuery(c))))
}

// HandleMerchants returns spend per merchant for the ranking view.
func (s *Service) HandleMerchants(c *gin.Context) {
	snapshot, ok := s.getSnapshot()
	if !ok {
		c.JSON(http.StatusAccepted, gin.H{"message": "no statement loaded", "needsUpload": true})
		return
	}
	c.JSON(http.StatusOK, TopMerchants(Filter(snapshot.Transactions, filterFromQuery(c))))
}

// HandleDiagnostics returns the rows dropped during normalization.
func (s *Service) HandleDiagnostics(c *gin.Context) {
	snapshot, ok := s.getSnapshot()
	if !ok {
		c.JSON(http.StatusAccepted, gin.H{"message": "no statement loaded", "needsUpload": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"batchId": snapshot.BatchID,
		"dropped": snapshot.Dropped,
	})
}

// HandleGetSettings returns the current application settings.
func (s *Service) HandleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, s.settings)
}

// HandleUpdateSettings updates application settings and saves to disk.
func (s *Service) HandleUpdateSettings(c *gin.Context) {
	var updated config.Settings
	if err := c.BindJSON(&updated); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid settings format"})
		return
	}

	s.settings = &updated

	if err := config.SaveSettings(&updated); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "settings updated successfully"})
}

func filterFromQuery(c *gin.Context) FilterOptions {
	return FilterOptions{
		IncludeTransfers: c.Query("includeTransfers") == "true",
		SearchText:       c.Query("search"),
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v < 1 {
		return fallback
	}
	return v
}
