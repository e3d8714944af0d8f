package kanban

import (
	"time"
)

// Board is the top-level container owned by a user.
type Board struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	Name        string    `gorm:"not null;type:text" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	UserID      string    `gorm:"index;not null;type:text" json:"userId"`
	Buckets     []Bucket  `gorm:"foreignKey:BoardID" json:"buckets,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Board entity.
func (Board) TableName() string {
	return "boards"
}

// Bucket is an ordered column of tasks. Position is dense and zero-based
// within its board.
type Bucket struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Name      string    `gorm:"not null;type:text" json:"name"`
	Position  int       `gorm:"not null" json:"position"`
	BoardID   string    `gorm:"index;not null;type:text" json:"boardId"`
	UserID    string    `gorm:"index;not null;type:text" json:"userId"`
	Tasks     []Task    `gorm:"foreignKey:BucketID" json:"tasks,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Bucket entity.
func (Bucket) TableName() string {
	return "buckets"
}

// Task is a unit of work. Position is dense and zero-based within its bucket.
type Task struct {
	ID             string          `gorm:"primaryKey;type:text" json:"id"`
	Text           string          `gorm:"not null;type:text" json:"text"`
	Description    *string         `gorm:"type:text" json:"description"`
	Complete       bool            `gorm:"not null;default:false" json:"complete"`
	Priority       *Priority       `gorm:"type:text" json:"priority"`
	StartDate      *time.Time      `json:"startDate"`
	DueDate        *time.Time      `gorm:"index" json:"dueDate"`
	Position       int             `gorm:"not null" json:"position"`
	BucketID       string          `gorm:"index;not null;type:text" json:"bucketId"`
	UserID         string          `gorm:"index;not null;type:text" json:"userId"`
	CheckListItems []CheckListItem `gorm:"foreignKey:TaskID" json:"checkListItems,omitempty"`
	Comments       []Comment       `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
	Attachments    []Attachment    `gorm:"foreignKey:TaskID" json:"attachments,omitempty"`
	Tags           []TaskTag       `gorm:"foreignKey:TaskID" json:"tags,omitempty"`
	Bucket         *BucketRef      `gorm:"-" json:"bucket,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// TableName returns the table name for the Task entity.
func (Task) TableName() string {
	return "tasks"
}

// BucketRef is the short bucket reference returned with a single task.
type BucketRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tag labels tasks. Names are unique per owner.
type Tag struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	Name        string    `gorm:"not null;type:text;uniqueIndex:idx_tags_user_name" json:"name"`
	Description *string   `gorm:"type:text" json:"description"`
	UserID      string    `gorm:"not null;type:text;uniqueIndex:idx_tags_user_name" json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Tag entity.
func (Tag) TableName() string {
	return "tags"
}

// TaskTag associates a task with a tag.
type TaskTag struct {
	TaskID string `gorm:"primaryKey;type:text" json:"taskId"`
	TagID  string `gorm:"primaryKey;type:text" json:"tagId"`
	Tag    Tag    `gorm:"foreignKey:TagID" json:"tag"`
}

// TableName returns the table name for the TaskTag entity.
func (TaskTag) TableName() string {
	return "task_tags"
}

type CheckListItem struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Text      string    `gorm:"not null;type:text" json:"text"`
	Complete  bool      `gorm:"not null;default:false" json:"complete"`
	TaskID    string    `gorm:"index;not null;type:text" json:"taskId"`
	UserID    string    `gorm:"not null;type:text" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for the CheckListItem entity.
func (CheckListItem) TableName() string {
	return "check_list_items"
}

type Comment struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	Text      string    `gorm:"not null;type:text" json:"text"`
	Posted    time.Time `gorm:"not null" json:"posted"`
	TaskID    string    `gorm:"index;not null;type:text" json:"taskId"`
	UserID    string    `gorm:"not null;type:text" json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

// TableName returns the table name for the Comment entity.
func (Comment) TableName() string {
	return "comments"
}

// Attachment annotates a task with an object held in object storage.
type Attachment struct {
	ID        string       `gorm:"primaryKey;type:text" json:"id"`
	Text      string       `gorm:"type:text" json:"text"`
	Added     time.Time    `gorm:"not null" json:"added"`
	TaskID    string       `gorm:"index;not null;type:text" json:"taskId"`
	LinkID    string       `gorm:"not null;type:text" json:"linkId"`
	Link      StoredObject `gorm:"foreignKey:LinkID" json:"link"`
	UserID    string       `gorm:"not null;type:text" json:"userId"`
	CreatedAt time.Time    `json:"createdAt"`
}

// TableName returns the table name for the Attachment entity.
func (Attachment) TableName() string {
	return "attachments"
}

// StoredObject is the URL/bucket/key triple of an uploaded object.
type StoredObject struct {
	ID         string    `gorm:"primaryKey;type:text" json:"id"`
	URL        string    `gorm:"not null;type:text" json:"url"`
	BucketName string    `gorm:"not null;type:text" json:"bucketName"`
	Key        string    `gorm:"not null;type:text" json:"key"`
	UserID     string    `gorm:"not null;type:text" json:"userId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TableName returns the table name for the StoredObject entity.
func (StoredObject) TableName() string {
	return "stored_objects"
}

// Entities lists every persisted kanban type for migrations.
func Entities() []any {
	return []any{
		&Board{}, &Bucket{}, &Task{}, &Tag{}, &TaskTag{},
		&CheckListItem{}, &Comment{}, &Attachment{}, &StoredObject{},
	}
}

// SetBucketPosition is a reorder setter for buckets.
func SetBucketPosition(b Bucket, p int) Bucket {
	b.Position = p
	return b
}

// SetTaskPosition is a reorder setter for tasks.
func SetTaskPosition(t Task, p int) Task {
	t.Position = p
	return t
}
