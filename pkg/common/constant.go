package common

const (
	EnvKeyGoEnv string = "GO_ENV"

	EnvKeyRunIntegrationTests string = "RUN_INTEGRATION_TESTS"

	EnvKeyIOTConfigPath string = "IOT_CONFIG_PATH"

	EnvKeyIOTDBType string = "IOT_DB_TYPE"
	EnvKeyIOTDbPath string = "IOT_DB_PATH"

	EnvKeyIOTHttpHostPort string = "IOT_HTTP_HOST_PORT"
	EnvKeyIOTGrpcHostPort string = "IOT_GRPC_HOST_PORT"

	EnvKeyIOTDefaultRate  string = "IOT_DEFAULT_RATE"
	EnvKeyIOTDefaultBurst string = "IOT_DEFAULT_BURST"

	EnvKeyIOTSweepCron string = "IOT_SWEEP_CRON"

	EnvKeyLLMProvider string = "LLM_PROVIDER"
	EnvKeyLLMModel    string = "LLM_MODEL"
	EnvKeyLLMAPIKey   string = "LLM_API_KEY"
	EnvKeyLLMBaseURL  string = "LLM_BASE_URL"
	EnvKeyOpenAIKey   string = "OPENAI_API_KEY"

	EnvKeyEmbeddingProvider string = "EMBEDDING_PROVIDER"
	EnvKeyEmbeddingModel    string = "EMBEDDING_MODEL"
	EnvKeyEmbeddingBaseURL  string = "EMBEDDING_BASE_URL"

	EnvKeyArchiveEndpoint  string = "ARCHIVE_ENDPOINT"
	EnvKeyArchiveAccessKey string = "ARCHIVE_ACCESS_KEY"
	EnvKeyArchiveSecretKey string = "ARCHIVE_SECRET_KEY"

	LoggerNameIOTCore       string = "iot_core"
	LoggerNameKnowledge     string = "knowledge"
	LoggerNameLLM           string = "llm"
	LoggerNameRestfulServer string = "restful_server"
	LoggerNameGrpcServer    string = "grpc_server"
	LoggerFieldIOTCategory  string = "category"

	LoggerCategoryIOTReading      string = "reading"
	LoggerCategoryIOTAlert        string = "alert"
	LoggerCategoryIOTThreshold    string = "threshold"
	LoggerCategoryIOTProfile      string = "profile"
	LoggerCategoryIOTConnectivity string = "connectivity"

	LoggerCategoryKnowledgeIndex   string = "index"
	LoggerCategoryKnowledgeExtract string = "extract"
	LoggerCategoryKnowledgeUpload  string = "upload"
)
