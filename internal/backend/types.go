package backend

// DTOs mirrored verbatim from backend JSON. The backend owns these shapes.

// Job status values reported by the backend.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// TerminalStatus reports whether a job status is terminal.
// Pollers stop as soon as a terminal status is observed.
func TerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// ImportRequest asks the backend to import one Google Doc.
type ImportRequest struct {
	URL       string `json:"url"`
	Recursive bool   `json:"recursive"`
	UserEmail string `json:"user_email,omitempty"`
}

// ImportResponse acknowledges a queued import.
type ImportResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// FolderImportRequest asks the backend to import every doc in a Drive folder.
type FolderImportRequest struct {
	FolderURL         string `json:"folder_url"`
	UserEmail         string `json:"user_email,omitempty"`
	IncludeSubfolders bool   `json:"include_subfolders"`
}

// FolderImportJob is the per-document outcome of a folder import.
// Exactly one of JobID or Error is meaningful: a job id means the document
// was queued, an error string means that document failed. One failure never
// fails the batch.
type FolderImportJob struct {
	JobID        string `json:"job_id,omitempty"`
	DocumentName string `json:"document_name"`
	DocumentID   string `json:"document_id"`
	Error        string `json:"error,omitempty"`
}

// Queued reports whether this document was accepted for import.
func (j FolderImportJob) Queued() bool { return j.Error == "" && j.JobID != "" }

// FolderImportResponse is the best-effort-per-item batch result.
type FolderImportResponse struct {
	Message        string            `json:"message"`
	FolderID       string            `json:"folder_id"`
	TotalDocuments int               `json:"total_documents"`
	Jobs           []FolderImportJob `json:"jobs"`
}

// ImportJob is the status document for one import job.
type ImportJob struct {
	JobID              string   `json:"job_id"`
	Status             string   `json:"status"`
	TotalDocs          int      `json:"total_docs"`
	ProcessedDocs      int      `json:"processed_docs"`
	FailedDocs         int      `json:"failed_docs"`
	ProgressPercentage float64  `json:"progress_percentage"`
	ErrorMessage       string   `json:"error_message,omitempty"`
	ImportedDocIDs     []string `json:"imported_doc_ids,omitempty"`
	StartedAt          string   `json:"started_at"`
	CompletedAt        string   `json:"completed_at,omitempty"`
}

// Document is a knowledge-base document.
type Document struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	SourceURL   string   `json:"source_url,omitempty"`
	SourceType  string   `json:"source_type"`
	DocType     string   `json:"doc_type"`
	Status      string   `json:"status"`
	VaultPath   string   `json:"vault_path"`
	ContentMD   string   `json:"content_md,omitempty"`
	ContentHTML string   `json:"content_html,omitempty"`
	Summary     string   `json:"summary,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Author      string   `json:"author,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// SearchResult is a single ranked match.
type SearchResult struct {
	DocumentID      string  `json:"document_id"`
	DocumentTitle   string  `json:"document_title"`
	ChunkText       string  `json:"chunk_text"`
	SimilarityScore float64 `json:"similarity_score"`
	ChunkIndex      int     `json:"chunk_index"`
	SourceURL       string  `json:"source_url,omitempty"`
	VaultPath       string  `json:"vault_path,omitempty"`

	// Code-specific fields (present only for code chunks)
	DocType        string `json:"doc_type,omitempty"`
	Language       string `json:"language,omitempty"`
	RepositoryID   string `json:"repository_id,omitempty"`
	RepositoryName string `json:"repository_name,omitempty"`
	FilePath       string `json:"file_path,omitempty"`
	ChunkType      string `json:"chunk_type,omitempty"`
	ChunkName      string `json:"chunk_name,omitempty"`
	StartLine      int    `json:"start_line,omitempty"`
	EndLine        int    `json:"end_line,omitempty"`
}

// SearchResponse is the ranked result list, optionally with a RAG answer.
type SearchResponse struct {
	Query        string         `json:"query"`
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"total_results"`
	AIAnswer     string         `json:"ai_answer,omitempty"`
}

// FilterOptions enumerates the values available for advanced search filters.
type FilterOptions struct {
	DocTypes       []string          `json:"doc_types"`
	Authors        []string          `json:"authors"`
	Tags           []string          `json:"tags"`
	DateRange      map[string]string `json:"date_range"`
	TotalDocuments int               `json:"total_documents"`
}

// ReviewRequest asks for an AI review of a document.
type ReviewRequest struct {
	DocumentID string   `json:"document_id"`
	ReviewType string   `json:"review_type"`
	FocusAreas []string `json:"focus_areas,omitempty"`
	Model      string   `json:"model,omitempty"`
}

// ReviewResponse acknowledges a created review job.
type ReviewResponse struct {
	ReviewID           string `json:"review_id"`
	Status             string `json:"status"`
	Message            string `json:"message"`
	OriginalDocumentID string `json:"original_document_id"`
	ReviewType         string `json:"review_type"`
}

// Review is the status document for a review job.
type Review struct {
	ReviewID              string         `json:"review_id"`
	Status                string         `json:"status"`
	ReviewType            string         `json:"review_type"`
	OriginalDocumentID    string         `json:"original_document_id"`
	OriginalDocumentTitle string         `json:"original_document_title,omitempty"`
	ReviewedDocumentID    string         `json:"reviewed_document_id,omitempty"`
	ReviewedDocumentTitle string         `json:"reviewed_document_title,omitempty"`
	ReviewedDocumentPath  string         `json:"reviewed_document_path,omitempty"`
	StreamingContent      string         `json:"streaming_content,omitempty"`
	TotalComments         int            `json:"total_comments"`
	CommentCategories     map[string]int `json:"comment_categories,omitempty"`
	AIModel               string         `json:"ai_model,omitempty"`
	ErrorMessage          string         `json:"error_message,omitempty"`
	StartedAt             string         `json:"started_at"`
	CompletedAt           string         `json:"completed_at,omitempty"`
	CreatedBy             string         `json:"created_by,omitempty"`
}

// SaveReviewRequest persists a finished review to the note vault.
type SaveReviewRequest struct {
	DocumentID      string   `json:"document_id"`
	DocumentTitle   string   `json:"document_title"`
	ReviewType      string   `json:"review_type"`
	ReviewedContent string   `json:"reviewed_content"`
	Personas        []string `json:"personas"`
	Model           string   `json:"model"`
}

// SaveReviewResponse reports where the review landed.
// VaultPath is empty when the vault feature is disabled server-side.
type SaveReviewResponse struct {
	Success     bool   `json:"success"`
	VaultPath   string `json:"vault_path,omitempty"`
	ObsidianURI string `json:"obsidian_uri,omitempty"`
	Message     string `json:"message"`
}

// Collection groups documents and repositories.
type Collection struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description,omitempty"`
	Color           string `json:"color"`
	Icon            string `json:"icon"`
	DocumentCount   int    `json:"document_count"`
	RepositoryCount int    `json:"repository_count"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// CollectionCreate is the create/update payload for collections.
type CollectionCreate struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color,omitempty"`
	Icon        string `json:"icon,omitempty"`
}

// DocumentSummary is the compact document form used in collection items.
type DocumentSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	DocType   string `json:"doc_type,omitempty"`
	CreatedAt string `json:"created_at"`
}

// RepositorySummary is the compact repository form used in collection items.
type RepositorySummary struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	PrimaryLanguage string `json:"primary_language,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// CollectionItems lists a collection's members.
type CollectionItems struct {
	Documents    []DocumentSummary   `json:"documents"`
	Repositories []RepositorySummary `json:"repositories"`
}

// Repository is an ingested code repository.
type Repository struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	LocalPath       string `json:"local_path"`
	PrimaryLanguage string `json:"primary_language,omitempty"`
	TotalFiles      int    `json:"total_files"`
	TotalFunctions  int    `json:"total_functions"`
	TotalClasses    int    `json:"total_classes"`
	LinesOfCode     int    `json:"lines_of_code"`
	LastSynced      string `json:"last_synced,omitempty"`
}

// CodeChunk is one indexed unit of a repository.
type CodeChunk struct {
	ID        string `json:"id"`
	ChunkName string `json:"chunk_name,omitempty"`
	ChunkType string `json:"chunk_type"`
	Language  string `json:"language"`
	FilePath  string `json:"file_path"`
	Signature string `json:"signature,omitempty"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

// GraphNode and GraphEdge form the knowledge graph. Data is left loosely
// typed: node payloads vary per node type and the client only renders them.
type GraphNode struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// GraphEdge links two graph nodes.
type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
}

// Graph is the knowledge graph with summary stats.
type Graph struct {
	Nodes []GraphNode    `json:"nodes"`
	Edges []GraphEdge    `json:"edges"`
	Stats map[string]any `json:"stats,omitempty"`
}
