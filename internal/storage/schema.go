package storage

// schemaLockKey serializes concurrent EnsureSchema calls across replicas
const schemaLockKey = 7_402_118_331

// schemaStatements is applied in order by EnsureSchema. Every statement is
// idempotent.
//
// benefit.job_id is indexed but not constrained: deleting a company removes its
// job postings and leaves their benefits behind.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS company (
		company_id   UUID PRIMARY KEY,
		company_name VARCHAR,
		location     VARCHAR,
		description  TEXT,
		url          VARCHAR
	)`,
	`CREATE INDEX IF NOT EXISTS ix_company_company_name ON company (company_name)`,

	`CREATE TABLE IF NOT EXISTS job_posting (
		job_id           UUID PRIMARY KEY,
		company_id       UUID REFERENCES company (company_id),
		job_title        VARCHAR,
		description      TEXT,
		salary           INTEGER,
		pay_period       VARCHAR,
		work_type        VARCHAR,
		experience_level VARCHAR,
		location         VARCHAR,
		applies          INTEGER,
		listed_time      TIMESTAMP,
		currency         VARCHAR,
		platform         VARCHAR,
		url              VARCHAR,
		crawled_time     TIMESTAMP NOT NULL DEFAULT (now() AT TIME ZONE 'utc')
	)`,
	`CREATE INDEX IF NOT EXISTS ix_job_posting_url ON job_posting (url)`,
	`CREATE INDEX IF NOT EXISTS ix_job_posting_company_id ON job_posting (company_id)`,

	`CREATE TABLE IF NOT EXISTS benefit (
		id       SERIAL PRIMARY KEY,
		job_id   UUID NOT NULL,
		type     VARCHAR,
		inferred VARCHAR
	)`,
	`CREATE INDEX IF NOT EXISTS ix_benefit_job_id ON benefit (job_id)`,
}
