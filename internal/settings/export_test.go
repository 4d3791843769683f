package settings

// Migrations exposes the schema steps to external tests.
var Migrations = migrations
