package parser

import "github.com/hashicorp/hcl/v2"

func hclPos(line, column, byteOffset int) hcl.Pos {
	return hcl.Pos{Line: line, Column: column, Byte: byteOffset}
}
