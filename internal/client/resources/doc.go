// Package resources turns protected binary resources (avatars, uploaded
// documents) into locally usable handles.
//
// A resource reference is an opaque path classified into exactly one of two
// transport variants: a static path under the uploaded-file storage prefix,
// fetched directly from the origin, or an API-relative path fetched through
// the gateway. The Cache owns every Handle it creates: at most one live
// handle exists per reference, superseded and evicted handles are released
// exactly once, and results stay fresh only for a bounded window because
// the server may replace bytes behind an unchanged reference.
package resources
