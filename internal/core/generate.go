package core

//go:generate mockgen -destination=mocks/mock_core.go -package=mocks github.com/freedesktop/telepathy-phoenix/internal/core Call,StatusExporter,NotifierSource
