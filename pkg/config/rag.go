package config

// Embedding providers understood by the embeddings package.
const (
	ProviderHuggingFace = "huggingface"
	ProviderGoogle      = "google"
)

// RagConfig configures embedding and ingestion for the local document store.
type RagConfig struct {
	EmbeddingProvider  string
	EmbeddingModel     string
	EmbeddingDimension int
	HuggingFaceToken   string
	GoogleApiKey       string
	ChunkSize          int
	ChunkOverlap       int
}

func LoadRagConfig() *RagConfig {
	provider := getEnv("EMBEDDING_PROVIDER", ProviderHuggingFace)

	defaultModel := "sentence-transformers/all-MiniLM-L6-v2"
	defaultDim := 384
	if provider == ProviderGoogle {
		defaultModel = "gemini-embedding-001"
		defaultDim = 1536
	}

	return &RagConfig{
		EmbeddingProvider:  provider,
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", defaultModel),
		EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", defaultDim),
		HuggingFaceToken:   getEnv("HUGGINGFACEHUB_API_TOKEN", ""),
		GoogleApiKey:       getEnv("GOOGLE_API_KEY", ""),
		ChunkSize:          getEnvAsInt("CHUNK_SIZE", 1000),
		ChunkOverlap:       getEnvAsInt("CHUNK_OVERLAP", 200),
	}
}
