package log

// Field names shared by every log line. FieldUserID and FieldDisplayName
// double as the gin context keys set by pkg/middleware.
const (
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	FieldService    = "service"
	FieldGRPCMethod = "grpc_method"
	FieldGRPCCode   = "grpc_code"

	FieldUserID       = "user_id"
	FieldDisplayName  = "display_name"
	FieldConnectionID = "connection_id"
	FieldRoomID       = "room_id"
	FieldMessageID    = "message_id"
	FieldTempID       = "temp_id"
	FieldEventType    = "event_type"

	// FieldLogType marks membership and room audit lines.
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
