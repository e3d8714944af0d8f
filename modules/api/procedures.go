package api

// procedure maps a public RPC name onto a module service.
type procedure struct {
	Module  string
	Service string
	// Public procedures skip bearer authentication and carry no caller.
	Public bool
}

// procedures is the complete RPC surface.
var procedures = map[string]procedure{
	"boards.create":                {Module: "boards", Service: "create"},
	"boards.readAll":               {Module: "boards", Service: "read-all"},
	"boards.readOne":               {Module: "boards", Service: "read-one"},
	"boards.update":                {Module: "boards", Service: "update"},
	"boards.delete":                {Module: "boards", Service: "delete"},
	"boards.addBucket":             {Module: "boards", Service: "add-bucket"},
	"boards.removeBucket":          {Module: "boards", Service: "remove-bucket"},
	"boards.updateBucketPositions": {Module: "boards", Service: "update-bucket-positions"},
	"boards.readAllBuckets":        {Module: "boards", Service: "read-all-buckets"},

	"tasks.create":                 {Module: "tasks", Service: "create"},
	"tasks.readOne":                {Module: "tasks", Service: "read-one"},
	"tasks.update":                 {Module: "tasks", Service: "update"},
	"tasks.updatePositions":        {Module: "tasks", Service: "update-positions"},
	"tasks.delete":                 {Module: "tasks", Service: "delete"},
	"tasks.status":                 {Module: "tasks", Service: "status"},
	"tasks.sendReportEmail":        {Module: "tasks", Service: "send-report-email", Public: true},
	"tasks.generateS3PresignedUrl": {Module: "attachments", Service: "presign"},

	"tags.create":  {Module: "tags", Service: "create"},
	"tags.readAll": {Module: "tags", Service: "read-all"},
	"tags.readOne": {Module: "tags", Service: "read-one"},
	"tags.update":  {Module: "tags", Service: "update"},
	"tags.delete":  {Module: "tags", Service: "delete"},

	"admin.export": {Module: "admin", Service: "export"},
	"admin.import": {Module: "admin", Service: "import"},
}

// lookupProcedure resolves "<namespace>.<procedure>".
func lookupProcedure(name string) (procedure, bool) {
	p, ok := procedures[name]
	return p, ok
}
