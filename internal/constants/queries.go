package constants

const (
	GetStatusByApiKey = `
	SELECT id, status FROM api_keys WHERE id = $1
	`

	InsertApiKey = `
	INSERT INTO api_keys (status, label) VALUES (true, $1) RETURNING id
	`

	PingQuery = `SELECT 1`
)
