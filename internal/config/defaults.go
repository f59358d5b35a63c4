package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.AllowedOrigins == nil {
		cfg.Server.AllowedOrigins = []string{"http://localhost:5173", "https://query-tube-ai.vercel.app"}
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Server.RateLimit > 0 && cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = int(cfg.Server.RateLimit) + 1
	}
	if cfg.Catalog.Path == "" {
		cfg.Catalog.Path = "/usr/local/var/querytube/data/video_index_mpnet.parquet"
	}
	if cfg.Catalog.Table == "" {
		cfg.Catalog.Table = "videos"
	}
	if cfg.Catalog.EmbeddingPrefix == "" {
		cfg.Catalog.EmbeddingPrefix = "emb_"
	}
	if cfg.Catalog.IDColumn == "" {
		cfg.Catalog.IDColumn = "video_id"
	}
	if cfg.Catalog.TitleColumn == "" {
		cfg.Catalog.TitleColumn = "title"
	}
	if cfg.Catalog.PublishedAtColumn == "" {
		cfg.Catalog.PublishedAtColumn = "datetime"
	}
	if cfg.Catalog.TranscriptColumn == "" {
		cfg.Catalog.TranscriptColumn = "transcript"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/querytube/data/models/all-mpnet-base-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 768
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 384
	}
	if cfg.Embedding.CacheSize == nil {
		size := 10000
		cfg.Embedding.CacheSize = &size
	}
	if cfg.Embedding.Pooling == "" {
		cfg.Embedding.Pooling = "mean"
	}
	if cfg.Embedding.OutputName == "" {
		cfg.Embedding.OutputName = "last_hidden_state"
	}
	if cfg.Search.DefaultTopK == 0 {
		cfg.Search.DefaultTopK = 5
	}
	if cfg.Search.MaxTopK == 0 {
		cfg.Search.MaxTopK = 100
	}
}
