package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	IO              Category = "IO"
	Internal        Category = "Internal"
	RabbitMQ        Category = "RabbitMQ"
	Mongo           Category = "Mongo"
	Postgres        Category = "Postgres"
	SSE             Category = "SSE"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	ExternalService SubCategory = "ExternalService"
	RateLimiting    SubCategory = "RateLimiting"

	// Fan-out path
	Provisioning SubCategory = "Provisioning"
	Publishing   SubCategory = "Publishing"
	Consuming    SubCategory = "Consuming"
	Dispatching  SubCategory = "Dispatching"
	Streaming    SubCategory = "Streaming"
	Retention    SubCategory = "Retention"
)

const (
	AppName       ExtraKey = "AppName"
	LoggerName    ExtraKey = "Logger"
	TopicKey      ExtraKey = "Topic"
	EventKindKey  ExtraKey = "EventKind"
	CorrelationID ExtraKey = "CorrelationId"
	EmitterID     ExtraKey = "EmitterId"
	RecipientID   ExtraKey = "RecipientId"
	Method        ExtraKey = "Method"
	StatusCode    ExtraKey = "StatusCode"
	Path          ExtraKey = "Path"
	Latency       ExtraKey = "Latency"
	ErrorMessage  ExtraKey = "ErrorMessage"
)
