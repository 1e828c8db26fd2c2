package auditcontext

import "context"

type contextKey string

const (
	requestIDKey  contextKey = "audit_request_id"
	collectorKey  contextKey = "audit_collector_id"
	ipAddressKey  contextKey = "audit_ip_address"
	deviceInfoKey contextKey = "audit_device_info"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	value, _ := ctx.Value(requestIDKey).(string)
	return value
}

func WithCollector(ctx context.Context, collectorID string) context.Context {
	if collectorID == "" {
		return ctx
	}
	return context.WithValue(ctx, collectorKey, collectorID)
}

func CollectorFromContext(ctx context.Context) string {
	value, _ := ctx.Value(collectorKey).(string)
	return value
}

func WithIPAddress(ctx context.Context, ipAddress string) context.Context {
	if ipAddress == "" {
		return ctx
	}
	return context.WithValue(ctx, ipAddressKey, ipAddress)
}

func IPAddressFromContext(ctx context.Context) string {
	value, _ := ctx.Value(ipAddressKey).(string)
	return value
}

func WithDeviceInfo(ctx context.Context, deviceInfo string) context.Context {
	if deviceInfo == "" {
		return ctx
	}
	return context.WithValue(ctx, deviceInfoKey, deviceInfo)
}

func DeviceInfoFromContext(ctx context.Context) string {
	value, _ := ctx.Value(deviceInfoKey).(string)
	return value
}
