// Package config loads engine settings and store definitions.
//
// A configuration is a CUE file, or YAML/JSON carrying the same shape, that
// is validated against the schema embedded in this package (#Config) before
// it is decoded. Defaults come from the schema:
//
//	engine: {
//		storage: type: "local"
//		storage: root: "/var/lib/aggregator"
//		nfcTimeout: "30m"
//	}
//	stores: [
//		{type: "hosted", name: "local"},
//		{type: "remote", name: "central", url: "https://repo.maven.apache.org/maven2"},
//		{type: "group", name: "public", members: ["hosted:local", "remote:central"]},
//	]
//
// Group members are written as "type:name", taking the group's package type,
// or as a full "packageType:type:name" key.
package config
