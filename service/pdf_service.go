package service

import (
	"bufio"
	"bytes"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/caovinh/manual-rag-be/types"
)

// PDFService extracts per-page text and images from PDF files and splits the
// text into overlapping chunks. Extraction shells out to poppler
// (pdfinfo/pdftotext/pdftoppm) with a tesseract OCR fallback for scanned
// pages. It holds no state between calls.
type PDFService struct {
	chunkSize    int // maximum size of each text chunk, in characters
	chunkOverlap int // overlap between consecutive chunks, in characters
}

var _ DocumentProcessor = (*PDFService)(nil)

var DefaultDocumentServiceConfig = types.DocumentServiceConfig{
	ChunkSize:    1024,
	ChunkOverlap: 128,
}

// NewPDFService creates a new PDF service with configurable chunk sizes
func NewPDFService(config types.DocumentServiceConfig) *PDFService {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultDocumentServiceConfig.ChunkSize
	}
	if config.ChunkOverlap < 0 || config.ChunkOverlap >= config.ChunkSize {
		config.ChunkOverlap = config.ChunkSize / 8
	}
	return &PDFService{
		chunkSize:    config.ChunkSize,
		chunkOverlap: config.ChunkOverlap,
	}
}

// ExtractPages reads every page of the PDF and returns per-page records.
// When withImages is set each page is also rendered to PNG for the vision
// adapter. A page whose text cannot be extracted is returned with empty
// text rather than failing the document; an unreadable file fails with
// types.ErrUnreadablePDF.
func (s *PDFService) ExtractPages(filePath string, withImages bool) ([]types.PageContent, error) {
	totalPages, err := PageCount(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", types.ErrUnreadablePDF, filePath, err)
	}
	if totalPages == 0 {
		return nil, fmt.Errorf("%w: %s: no pages", types.ErrUnreadablePDF, filePath)
	}

	pages := make([]types.PageContent, 0, totalPages)
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := types.PageContent{Page: pageNum}

		text, err := s.extractText(filePath, pageNum)
		if err != nil {
			log.Printf("Warning: failed to extract text from page %d: %v", pageNum, err)
		} else {
			page.Text = cleanText(text)
		}

		if withImages {
			png, err := RenderPage(filePath, pageNum)
			if err != nil {
				log.Printf("Warning: failed to render page %d: %v", pageNum, err)
			} else {
				page.Images = [][]byte{png}
			}
		}

		pages = append(pages, page)
	}
	return pages, nil
}

// ChunkPages concatenates the per-page text and splits it into chunks of at
// most chunkSize characters with chunkOverlap characters shared between
// consecutive chunks. Each chunk is tagged with the page its start falls on
// and an increasing ordinal.
func (s *PDFService) ChunkPages(pages []types.PageContent) []types.Chunk {
	var sb strings.Builder
	// pageStarts[i] is the offset of pages[i].Text in the concatenation
	pageStarts := make([]int, 0, len(pages))
	for _, page := range pages {
		if page.Text == "" {
			pageStarts = append(pageStarts, sb.Len())
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		pageStarts = append(pageStarts, sb.Len())
		sb.WriteString(page.Text)
	}
	text := sb.String()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	pageAt := func(offset int) int {
		page := 1
		for i, start := range pageStarts {
			if offset >= start && pages[i].Text != "" {
				page = pages[i].Page
			}
		}
		return page
	}

	var chunks []types.Chunk
	ordinal := 0
	pos := 0
	for pos < len(text) {
		end := pos + s.chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = boundaryBefore(text, pos, end)
		}

		piece := strings.TrimSpace(text[pos:end])
		if piece != "" {
			chunks = append(chunks, types.Chunk{
				Page:    pageAt(pos),
				Ordinal: ordinal,
				Text:    piece,
			})
			ordinal++
		}

		if end == len(text) {
			break
		}
		next := end - s.chunkOverlap
		if next <= pos {
			next = end // always make progress
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		pos = next
	}
	return chunks
}

// boundaryBefore moves a cut point back to the nearest sentence end, or
// failing that a word boundary, so chunks do not split mid-word. A hard cut
// still snaps back to a rune start so no chunk carries invalid UTF-8.
func boundaryBefore(text string, start, end int) int {
	for i := end - 1; i > start; i-- {
		if text[i] == '.' || text[i] == '?' || text[i] == '!' {
			return i + 1
		}
	}
	for i := end - 1; i > start; i-- {
		if text[i] == ' ' || text[i] == '\n' {
			return i
		}
	}
	for end > start && !utf8.RuneStart(text[end]) {
		end--
	}
	return end
}

// extractText attempts to extract text from a specific page using multiple methods
func (s *PDFService) extractText(filePath string, pageNumber int) (string, error) {
	text, err := extractTextWithPdftotext(filePath, pageNumber)
	if err != nil || text == "" {
		text, err = extractTextWithTesseract(filePath, pageNumber)
		if err != nil {
			return "", fmt.Errorf("failed to extract text: %w", err)
		}
	}
	return text, nil
}

// extractTextWithPdftotext extracts a single page's text using pdftotext.
func extractTextWithPdftotext(filePath string, pageNumber int) (string, error) {
	cmd := exec.Command("pdftotext",
		"-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-enc", "UTF-8", "-nopgbrk",
		filePath, "-")
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running pdftotext for page %d: %w", pageNumber, err)
	}
	if trimmed := strings.TrimSpace(out.String()); len(trimmed) > 0 {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

// extractTextWithTesseract rasterizes the page and runs OCR on it. Used when
// pdftotext returns nothing, which usually means a scanned page.
func extractTextWithTesseract(filePath string, pageNumber int) (string, error) {
	imageFile, cleanup, err := renderPageToFile(filePath, pageNumber)
	if err != nil {
		return "", err
	}
	defer cleanup()

	cmd := exec.Command("tesseract",
		imageFile,
		"stdout",
		"--oem", "3",
		"--psm", "3",
	)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running tesseract: %w", err)
	}
	if trimmed := strings.TrimSpace(out.String()); len(trimmed) > 0 {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

// RenderPage rasterizes one page to PNG bytes via pdftoppm.
func RenderPage(filePath string, pageNumber int) ([]byte, error) {
	imageFile, cleanup, err := renderPageToFile(filePath, pageNumber)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return os.ReadFile(imageFile)
}

func renderPageToFile(filePath string, pageNumber int) (string, func(), error) {
	tempDir, err := os.MkdirTemp("", "manual-page-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp directory: %w", err)
	}
	cleanup := func() { os.RemoveAll(tempDir) }

	cmd := exec.Command("pdftoppm",
		"-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-r", "200",
		"-png", filePath, filepath.Join(tempDir, "page"))
	if err := cmd.Run(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("converting page %d to image: %w", pageNumber, err)
	}

	files, err := filepath.Glob(filepath.Join(tempDir, "page-*.png"))
	if err != nil || len(files) == 0 {
		cleanup()
		return "", nil, fmt.Errorf("no image produced for page %d", pageNumber)
	}
	return files[0], cleanup, nil
}

// PageCount uses pdfinfo to get the total number of pages in a PDF file.
func PageCount(filePath string) (int, error) {
	cmd := exec.Command("pdfinfo", filePath)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("running pdfinfo: %w", err)
	}

	scanner := bufio.NewScanner(&out)
	re := regexp.MustCompile(`Pages:\s+(\d+)`)
	for scanner.Scan() {
		if matches := re.FindStringSubmatch(scanner.Text()); len(matches) == 2 {
			return strconv.Atoi(matches[1])
		}
	}
	return 0, fmt.Errorf("unable to determine page count from pdfinfo")
}

func cleanText(text string) string {
	replacements := map[string]string{
		"\u0000": "",   // Null character
		"\ufffd": "",   // Unicode replacement character
		"\u001b": "",   // Escape character
		"\r":     "",   // Carriage return
		"\f":     "\n", // Form feed to newline
		"  ":     " ",  // Multiple spaces to single space
	}
	cleaned := text
	for old, new := range replacements {
		cleaned = strings.ReplaceAll(cleaned, old, new)
	}
	return strings.TrimSpace(cleaned)
}
