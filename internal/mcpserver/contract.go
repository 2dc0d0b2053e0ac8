package mcpserver

// AttributeModel explains how a note's effective attributes are computed so
// LLM consumers can interpret get_note and get_attributes results.
const AttributeModel = `# Note Graph Attribute Model

Every note owns zero or more attributes. An attribute is either a **label**
(name plus optional string value) or a **relation** (name plus the id of a
target note).

## Effective attributes

get_attributes returns the effective list of a note, in this order:

1. Attributes the note owns, by position.
2. Inheritable attributes of each parent note, parents in tree order.
   A parent's inheritable attributes are themselves effective attributes,
   so inheritance reaches down through any number of levels.
   The tree root does not inherit from anything.
3. Every effective attribute of the target of a ` + "`" + `template` + "`" + ` or
   ` + "`" + `inherit` + "`" + ` relation found in steps 1 and 2.

An attribute appears once even when it is reachable by several paths; the
first occurrence wins. Each result carries the ` + "`" + `note_id` + "`" + ` of the note that
owns it, so inherited entries can be told apart from owned ones.

Cycles through template relations or parents are cut where they close;
nothing is ever resolved twice on the same path.

## Labels with special meaning

- ` + "`" + `shareAlias` + "`" + `: alternative id used by find_by_alias and in share ids.
- ` + "`" + `shareRoot` + "`" + `: marks the root of the shared tree.
- ` + "`" + `shareHiddenFromTree` + "`" + `: the note is left out of child listings.
- ` + "`" + `archived` + "`" + `: the note is archived.
- ` + "`" + `shareCredentials` + "`" + `: never returned by any tool.

A relation named ` + "`" + `imageLink` + "`" + ` hides the branch from its owner to the
target, so embedded images do not show up as children.

## Content

read_content returns text content inline. Images are returned as image
content, other binary content as a base64 blob resource. Protected notes
have no readable content and their title reads "[protected]".
`
