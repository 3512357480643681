// Package services implements the business logic layer between the
// HTTP handlers and the dataset pipeline. The dashboard service owns
// the in-memory project register: it loads uploads through the
// ingestion pipeline, answers filtered queries, and produces CSV
// exports. Handlers never touch the table directly.
package services
