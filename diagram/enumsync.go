package diagram

// syncEnumMappings keeps enum-mapping edges synchronized with property
// type edits on an entity node. It runs inside UpdateNode, after the
// payload has been replaced and before the invariants are re-checked.
//
// Only entity nodes participate: embeddables and interfaces never carry
// enum-mapping edges. Renaming an enum does not re-run this pass for the
// properties that referenced the old name; those mappings are left
// orphaned on purpose.
func (g *Graph) syncEnumMappings(n *Node, old, updated *Entity) {
	oldProps := make(map[string]Property, len(old.Properties))
	for _, p := range old.Properties {
		oldProps[p.ID] = p
	}
	newProps := make(map[string]bool, len(updated.Properties))

	for _, p := range updated.Properties {
		newProps[p.ID] = true
		prev, existed := oldProps[p.ID]
		prevType := ""
		if existed {
			prevType = prev.Type
		}
		if existed && prevType == p.Type {
			continue
		}
		// The previous type referenced an enum: drop that mapping.
		if enum := g.EnumByName(prevType); enum != nil {
			if m := g.MappingFor(n.ID, enum.ID); m != nil {
				g.DeleteEdge(m.ID)
			}
		}
		// The new type references an enum: upsert the mapping for this
		// (entity, enum) pair. Creation is a two-step create-then-patch
		// so the edge id exists before its payload is finalized.
		if enum := g.EnumByName(p.Type); enum != nil {
			m := g.MappingFor(n.ID, enum.ID)
			if m == nil {
				id := g.AddEdge(&EnumMapping{}, n.ID, enum.ID)
				m = g.Edge(id)
			}
			g.UpdateEdge(m.ID, &EnumMapping{PropertyID: p.ID, PreviousType: prevType})
		}
	}

	// Properties removed by the edit: drop mappings they established.
	for id, prev := range oldProps {
		if newProps[id] {
			continue
		}
		enum := g.EnumByName(prev.Type)
		if enum == nil {
			continue
		}
		if m := g.MappingFor(n.ID, enum.ID); m != nil && m.EnumMapping().PropertyID == id {
			g.DeleteEdge(m.ID)
		}
	}
}
