// Package message parses and encodes HDF5 object header messages.
//
// [Parse] decodes one message body given its type. The dataspace,
// datatype, fill value, data layout, filter pipeline, attribute, link,
// link info, group info, symbol table and continuation messages have
// typed forms; any other type comes back as [Unknown] with its raw bytes.
// Bodies are read through a bounds-checked cursor, so a truncated message
// is an error rather than a panic.
//
// Messages the writer emits implement [Serializable]. Each encodes its whole
// body before writing, so a message that cannot be encoded writes nothing.
package message
