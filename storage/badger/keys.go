package badger

// Physical key prefixes. Every logical key has a type entry under
// keyTypePrefix; its contents live under the prefix of its type, with
// hash fields and set or sorted set members appended after a NUL byte.
const (
	keyTypePrefix = "key:"
	stringPrefix  = "str:"
	hashPrefix    = "hash:"
	setPrefix     = "set:"
	zsetPrefix    = "zset:"

	memberSeparator = '\x00'
)

// Logical key types, named as Redis TYPE reports them
const (
	typeString = "string"
	typeHash   = "hash"
	typeSet    = "set"
	typeZSet   = "zset"
)

// makeTypeKey generates the key recording the type of a logical key.
func makeTypeKey(key string) []byte {
	return []byte(keyTypePrefix + key)
}

// makeStringKey generates the key holding a string value.
func makeStringKey(key string) []byte {
	return []byte(stringPrefix + key)
}

// makeMemberPrefix generates the prefix shared by every field or member of
// a container key. Format: prefix:key\x00
func makeMemberPrefix(prefix, key string) []byte {
	buf := make([]byte, 0, len(prefix)+len(key)+1)
	buf = append(buf, prefix...)
	buf = append(buf, key...)
	return append(buf, memberSeparator)
}

// makeMemberKey generates the key of one field or member of a container.
// Format: prefix:key\x00member
func makeMemberKey(prefix, key, member string) []byte {
	return append(makeMemberPrefix(prefix, key), member...)
}
