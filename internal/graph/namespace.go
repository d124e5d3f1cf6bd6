package graph

// Names of the classes, properties, and relationships that make up the
// persisted schema. These are a compatibility contract with existing data
// and must match exactly.
const (
	// SequenceIDs is the global sequence supplying message identifiers.
	SequenceIDs = "IDs"

	TagClass         = "Tag"
	TagNameProperty  = "name"
	TagNameIndexName = "Tag.NameIndex"

	MessageClass             = "Message"
	MessageIDProperty        = "mid"
	MessageTimestampProperty = "ts"
	MessageContentProperty   = "d"
	MessageTagRelationship   = "tagged-by"

	SessionClass                = "session"
	SessionIDProperty           = "sessionId"
	SessionChannelProperty      = "channelName"
	SessionNextIndexProperty    = "nextIndex"
	SessionMaxBufferPeriodInSec = "maxBufferPeriodInSec"
	SessionSessionRelationship  = "sessionLinks"
	SessionMessageRelationship  = "collects"
	SessionMessageIndexProperty = "index"
)

// InactiveTag marks messages hidden by the legacy storage provider. The
// constant is retained for interoperability with stored data; queries in
// this module do not filter on it.
const InactiveTag = "inactive"

// VertexClasses lists every vertex class the registrar must ensure.
func VertexClasses() []string {
	return []string{TagClass, MessageClass, SessionClass}
}

// EdgeClasses lists every edge class the registrar must ensure.
func EdgeClasses() []string {
	return []string{MessageTagRelationship, SessionSessionRelationship, SessionMessageRelationship}
}
