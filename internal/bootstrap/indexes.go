package bootstrap

import (
	"context"

	"github.com/ahmetcoskunkizilkaya/ats-backend/internal/docstore"
)

// MongoIndexes back the list queries of the record services.
var MongoIndexes = []docstore.Index{
	{Collection: "users", Name: "users_name", Fields: []docstore.Order{docstore.Asc("name")}},
	{Collection: "users", Name: "users_role_status", Fields: []docstore.Order{docstore.Asc("role"), docstore.Asc("status")}},
	{Collection: "jobs", Name: "jobs_status_created", Fields: []docstore.Order{docstore.Asc("status"), docstore.Desc("createdAt")}},
	{Collection: "jobs", Name: "jobs_interviewers", Fields: []docstore.Order{docstore.Asc("interviewers")}},
	{Collection: "applicants", Name: "applicants_job_applied", Fields: []docstore.Order{docstore.Asc("jobId"), docstore.Desc("appliedDate")}},
	{Collection: "applicants", Name: "applicants_interviewers", Fields: []docstore.Order{docstore.Asc("interviewers")}},
	{Collection: "accounts", Name: "accounts_uid", Fields: []docstore.Order{docstore.Asc("uid")}, Unique: true},
}

func EnsureMongoIndexes(ctx context.Context, m *docstore.Mongo) error {
	return m.EnsureIndexes(ctx, MongoIndexes)
}
