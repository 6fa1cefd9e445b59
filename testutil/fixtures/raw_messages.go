package fixtures

// RawErrorMessage returns a captured error ingest message in its wire form.
func RawErrorMessage() []byte {
	return []byte(`{
		"event_id": "9be2ef62-bc0f-42dd-b6c5-9a4b03bc1c84",
		"project_id": 42,
		"organization_id": 1,
		"platform": "go",
		"message": "runtime error: invalid memory address or nil pointer dereference",
		"timestamp": "2026-08-18T09:30:00Z",
		"tags": {
			"environment": "production",
			"release": "backend@1.4.2"
		}
	}`)
}

// RawTransactionMessage returns a captured transaction ingest message in its
// wire form. It carries two spans so processed batches have multiple rows.
func RawTransactionMessage() []byte {
	return []byte(`{
		"event_id": "bb1b5bd3-45ce-4bd4-ae36-6a3a455a9de7",
		"project_id": 42,
		"organization_id": 1,
		"transaction": "GET /api/0/organizations/{organization_id}/projects/",
		"start_ts": "2026-08-18T09:29:58.125Z",
		"finish_ts": "2026-08-18T09:29:58.312Z",
		"duration_ms": 187.5,
		"spans": [
			{"span_id": "b1d7cb9b4a4889be", "op": "db.query"},
			{"span_id": "91b9f3fa32a33879", "op": "http.client"}
		]
	}`)
}
