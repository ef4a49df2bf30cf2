package sections

import "context"

// Store persists refined section files in a flat keyspace. Keys follow the
// composite naming convention
// {project}-{stable_id}-{subfolder_type}-chunk{i}-section{j}.txt.
type Store interface {
	Save(ctx context.Context, key string, content string) error
	Get(ctx context.Context, key string) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
