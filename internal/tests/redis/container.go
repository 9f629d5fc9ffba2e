package redis

import (
	"context"
	"fmt"
	"log"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func Setup(ctx context.Context) (url string, cleanup func(), err error) {
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return "", nil, fmt.Errorf("failed to start redis container: %w", err)
	}

	teardown := func() {
		if err := container.Terminate(ctx); err != nil {
			log.Printf("failed to terminate container: %s", err)
		}
	}

	url, err = container.ConnectionString(ctx)
	if err != nil {
		teardown()
		return "", nil, fmt.Errorf("failed to get connection string: %w", err)
	}
	return url, teardown, nil
}
