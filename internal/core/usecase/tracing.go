package usecase

import "go.opentelemetry.io/otel"

var tracer = otel.Tracer("github.com/kirillkom/beready-legal-assistant/internal/core/usecase")
